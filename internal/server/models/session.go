package models

import "time"

// Session is the server-side record of an issued session token.
// ExpiresAt always equals the exp claim inside Token.
type Session struct {
	ID        string
	AccountID string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
