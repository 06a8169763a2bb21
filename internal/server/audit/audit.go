// Package audit publishes authentication events to an external sink.
package audit

import (
	"context"
	"time"
)

// Event types.
const (
	AccountRegistered = "account_registered"
	LoginSucceeded    = "login_succeeded"
	LoginFailed       = "login_failed"
	LoggedOut         = "logout"
)

// Event is one audit record. It never carries passwords or tokens.
type Event struct {
	Type     string    `json:"type"`
	Username string    `json:"username,omitempty"`
	Email    string    `json:"email,omitempty"`
	Sessions int64     `json:"sessions_revoked,omitempty"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
