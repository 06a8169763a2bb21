// Package client contains the client-side building blocks of the KodBank
// terminal client.
//
// It provides the Client contract for the KodBank REST API with an HTTP
// implementation (HTTPClient) that sends bearer tokens and maps error
// responses to sentinel errors (ErrUnauthorized, ErrSessionExpired,
// ErrAlreadyExists, ErrInvalidInput, ErrNotFound, ErrUnavailable, ErrServer)
// matchable with errors.Is. InitDatabase and RunMigrations bootstrap the
// local SQLite state file.
package client
