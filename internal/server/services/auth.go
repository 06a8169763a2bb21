// Package services contains server-side business logic. AuthService
// orchestrates registration, login, balance lookup and logout on top of the
// session issuer, validator and revoker.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kodbank/kodbank/internal/common"
	"github.com/kodbank/kodbank/internal/dbx"
	"github.com/kodbank/kodbank/internal/logging"
	"github.com/kodbank/kodbank/internal/server/audit"
	"github.com/kodbank/kodbank/internal/server/auth"
	"github.com/kodbank/kodbank/internal/server/models"
	"github.com/kodbank/kodbank/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Phone    *string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Username  string
	Token     string
	ExpiresAt time.Time
}

// Options configures an AuthService.
type Options struct {
	Tokens         auth.TokenConfig
	DefaultBalance decimal.Decimal
	Hasher         auth.PasswordHasher
	Logger         logging.Logger
	Publisher      audit.Publisher
	Clock          Clock
}

type AuthService struct {
	db             dbx.DBTX
	repomanager    repomanager.RepositoryManager
	hasher         auth.PasswordHasher
	issuer         *SessionIssuer
	validator      *SessionValidator
	revoker        *SessionRevoker
	defaultBalance decimal.Decimal
	logger         logging.Logger
	publisher      audit.Publisher
	now            Clock

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService wires the session components around one repository manager.
// Unset optional fields get defaults: bcrypt at its default cost, a no-op
// publisher, time.Now and a discarding logger.
func NewAuthService(db dbx.DBTX, m repomanager.RepositoryManager, opts Options) *AuthService {
	if opts.Hasher == nil {
		opts.Hasher = auth.NewBcryptHasher(0)
	}
	if opts.Publisher == nil {
		opts.Publisher = audit.NopPublisher{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	}

	return &AuthService{
		db:             db,
		repomanager:    m,
		hasher:         opts.Hasher,
		issuer:         NewSessionIssuer(db, m, opts.Tokens, opts.Clock),
		validator:      NewSessionValidator(opts.Tokens, opts.Clock),
		revoker:        NewSessionRevoker(db, m),
		defaultBalance: opts.DefaultBalance,
		logger:         opts.Logger.With("component", "auth"),
		publisher:      opts.Publisher,
		now:            opts.Clock,
	}
}

// Register creates an account with the default balance. It does not log the
// new customer in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	if isBlank(in.Username) || isBlank(in.Email) || in.Password == "" {
		return nil, common.ErrMissingFields
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: digest,
		Balance:      s.defaultBalance,
		Phone:        normalizePhone(in.Phone),
		Role:         models.RoleCustomer,
		CreatedAt:    s.now().UTC(),
	}

	created, err := s.repomanager.Accounts(s.db).Create(ctx, account)
	if err != nil {
		if !errors.Is(err, common.ErrDuplicateIdentity) {
			s.logger.Error(ctx, "account create failed", "username", in.Username, "error", err)
		}
		return nil, err
	}

	s.logger.Info(ctx, "account registered", "username", created.Username)
	s.publish(ctx, audit.Event{Type: audit.AccountRegistered, Username: created.Username, Email: created.Email})

	return created, nil
}

// Login checks the credentials and issues a session. Unknown emails and wrong
// passwords both yield common.ErrInvalidCredentials after a bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if isBlank(email) || password == "" {
		return nil, common.ErrMissingFields
	}

	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Error(ctx, "account lookup failed", "error", err)
		return nil, err
	}

	digest := s.dummyDigest()
	if account != nil {
		digest = account.PasswordHash
	}

	if !s.hasher.Verify(password, digest) || account == nil {
		s.logger.Info(ctx, "login rejected", "email", email)
		s.publish(ctx, audit.Event{Type: audit.LoginFailed, Email: email})
		return nil, common.ErrInvalidCredentials
	}

	issued, err := s.issuer.Issue(ctx, account)
	if err != nil {
		s.logger.Error(ctx, "session issue failed", "username", account.Username, "error", err)
		return nil, err
	}

	s.logger.Info(ctx, "login succeeded", "username", account.Username, "session_id", issued.SessionID)
	s.publish(ctx, audit.Event{Type: audit.LoginSucceeded, Username: account.Username, Email: account.Email})

	return &LoginResult{Username: account.Username, Token: issued.Token, ExpiresAt: issued.ExpiresAt}, nil
}

// GetBalance returns the balance of the account behind token. Invalid or
// expired tokens yield common.ErrSessionExpired.
func (s *AuthService) GetBalance(ctx context.Context, token string) (decimal.Decimal, error) {
	principal, err := s.validator.Validate(token)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", common.ErrSessionExpired, err)
	}

	account, err := s.repomanager.Accounts(s.db).GetByUsername(ctx, principal.Username)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error(ctx, "balance lookup failed", "username", principal.Username, "error", err)
		}
		return decimal.Zero, err
	}

	return account.Balance, nil
}

// Logout revokes every session of the token's owner and reports how many
// records were removed. It never fails: a missing or invalid token, or a
// store error, simply revokes nothing.
func (s *AuthService) Logout(ctx context.Context, token string) int64 {
	if token == "" {
		return 0
	}

	principal, err := s.validator.Validate(token)
	if err != nil {
		s.logger.Debug(ctx, "logout with unusable token", "error", err)
		return 0
	}

	n, err := s.revoker.RevokeAll(ctx, principal.Username)
	if err != nil {
		s.logger.Warn(ctx, "session revoke failed", "username", principal.Username, "error", err)
		return 0
	}

	s.logger.Info(ctx, "logged out", "username", principal.Username, "sessions_revoked", n)
	s.publish(ctx, audit.Event{Type: audit.LoggedOut, Username: principal.Username, Sessions: n})

	return n
}

// Validator exposes the session validator for transports that authenticate
// requests themselves.
func (s *AuthService) Validator() *SessionValidator {
	return s.validator
}

func (s *AuthService) publish(ctx context.Context, e audit.Event) {
	e.At = s.now().UTC()
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn(ctx, "audit publish failed", "type", e.Type, "error", err)
	}
}

func (s *AuthService) dummyDigest() string {
	s.dummyOnce.Do(func() {
		d, err := s.hasher.Hash("kodbank-timing-placeholder")
		if err == nil {
			s.dummyHash = d
		}
	})
	return s.dummyHash
}

func isBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}

// normalizePhone stores a missing or blank phone as absent.
func normalizePhone(p *string) *string {
	if p == nil || isBlank(*p) {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
