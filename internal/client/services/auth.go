// Package services contains application services for the KodBank terminal
// client. AuthService drives the remote auth API and keeps the session token
// in the local state database between runs.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kodbank/kodbank/internal/client/client"
	"github.com/kodbank/kodbank/internal/client/repositories/metadata"
)

// ErrNotLoggedIn is returned by calls that need a stored session.
var ErrNotLoggedIn = errors.New("not logged in")

// Session is the locally stored login state.
type Session struct {
	Username  string
	Token     string
	ExpiresAt time.Time // zero when the token carries no readable expiry
}

// AuthService defines authentication operations for the CLI.
type AuthService interface {
	Register(ctx context.Context, username, email string, password []byte, phone string) error
	Login(ctx context.Context, email string, password []byte) (*Session, error)
	Balance(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*Session, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	repo   metadata.Repository
}

// NewAuthService constructs an AuthService bound to the given API client and
// local metadata store.
func NewAuthService(c client.Client, repo metadata.Repository) AuthService {
	return &authService{client: c, repo: repo}
}

func (a *authService) Register(ctx context.Context, username, email string, password []byte, phone string) error {
	req := client.RegisterRequest{
		Username: username,
		Email:    email,
		Password: string(password),
	}
	if phone = strings.TrimSpace(phone); phone != "" {
		req.Phone = &phone
	}
	return a.client.Register(ctx, req)
}

// Login authenticates against the server and persists the issued token,
// replacing any previously stored session.
func (a *authService) Login(ctx context.Context, email string, password []byte) (*Session, error) {
	resp, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return nil, err
	}

	s := &Session{Username: resp.Username, Token: resp.Token, ExpiresAt: tokenExpiry(resp.Token)}

	values := map[string][]byte{
		metadata.KeyUsername: []byte(s.Username),
		metadata.KeyToken:    []byte(s.Token),
	}
	if !s.ExpiresAt.IsZero() {
		values[metadata.KeyExpiresAt] = []byte(s.ExpiresAt.UTC().Format(time.RFC3339))
	} else if err := a.repo.Delete(ctx, metadata.KeyExpiresAt); err != nil {
		return nil, err
	}

	if err := a.repo.SetMany(ctx, values); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

// Balance fetches the balance with the stored token. When the server reports
// the session as expired the stored session is dropped.
func (a *authService) Balance(ctx context.Context) (string, error) {
	s, err := a.Current(ctx)
	if err != nil {
		return "", err
	}

	balance, err := a.client.GetBalance(ctx, s.Token)
	if errors.Is(err, client.ErrSessionExpired) {
		if cerr := a.repo.Clear(ctx); cerr != nil {
			return "", errors.Join(err, cerr)
		}
	}
	return balance, err
}

// Logout forgets the local session first and then asks the server to revoke
// the account's sessions. Without a stored session it only clears local state.
func (a *authService) Logout(ctx context.Context) error {
	s, err := a.Current(ctx)
	if err != nil && !errors.Is(err, ErrNotLoggedIn) {
		return err
	}

	if err := a.repo.Clear(ctx); err != nil {
		return err
	}

	if s == nil {
		return nil
	}
	return a.client.Logout(ctx, s.Token)
}

// Current returns the stored session or ErrNotLoggedIn.
func (a *authService) Current(ctx context.Context) (*Session, error) {
	token, err := a.repo.Get(ctx, metadata.KeyToken)
	if err != nil {
		return nil, err
	}
	if len(token) == 0 {
		return nil, ErrNotLoggedIn
	}

	username, err := a.repo.Get(ctx, metadata.KeyUsername)
	if err != nil {
		return nil, err
	}

	s := &Session{Username: string(username), Token: string(token)}

	raw, err := a.repo.Get(ctx, metadata.KeyExpiresAt)
	if err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if t, perr := time.Parse(time.RFC3339, string(raw)); perr == nil {
			s.ExpiresAt = t
		}
	}
	return s, nil
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client holds no signing key and uses the value for display only.
func tokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
