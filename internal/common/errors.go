// Package common defines shared constants and sentinel errors used across
// client and server layers of KodBank. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateIdentity = errors.New("duplicate identity")
	ErrStoreUnavailable  = errors.New("store unavailable")

	// Input validation errors.
	ErrMissingFields    = errors.New("missing required fields")
	ErrInvalidArguments = errors.New("invalid arguments")

	// Credential errors. ErrInvalidCredentials deliberately covers both an
	// unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Session token errors.
	ErrMalformedToken = errors.New("malformed token")
	ErrTokenExpired   = errors.New("token expired")

	// ErrSessionExpired is what callers of authenticated reads see when the
	// presented token is malformed or expired.
	ErrSessionExpired = errors.New("session expired")
)
