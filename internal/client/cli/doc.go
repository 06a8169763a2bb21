// Package cli provides the interactive KodBank command-line client.
//
// It wires configuration, the local state database, the HTTP API client and
// an interactive REPL. The session token from a successful login is kept in
// the state database, so a restarted client is still logged in.
//
// Commands: register, login, balance, whoami, logout, help, exit.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
