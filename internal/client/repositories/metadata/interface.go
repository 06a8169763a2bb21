// Package metadata stores small key/value records of the client state
// database, such as the current session token.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyToken     = "token"
	KeyUsername  = "username"
	KeyExpiresAt = "expires_at"
)

// Repository is a key/value store. Get returns (nil, nil) for a missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetMany(ctx context.Context, values map[string][]byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
