// Package common contains shared constants and sentinel errors used across
// KodBank components.
package common

// SessionCookieName is the name of the HTTP-only cookie carrying the session
// token issued at login.
const SessionCookieName = "token"

// AuthorizationHeaderName carries the session token for bearer-style clients.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "
