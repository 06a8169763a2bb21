package client

import (
	"context"
)

// RegisterRequest is the body of a registration call.
type RegisterRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone,omitempty"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// Client is the KodBank API as seen by the terminal client.
type Client interface {
	Register(ctx context.Context, req RegisterRequest) error
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	GetBalance(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, token string) error
	Ping(ctx context.Context) error
}
