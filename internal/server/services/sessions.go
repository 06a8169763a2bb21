package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kodbank/kodbank/internal/common"
	"github.com/kodbank/kodbank/internal/dbx"
	"github.com/kodbank/kodbank/internal/server/auth"
	"github.com/kodbank/kodbank/internal/server/models"
	"github.com/kodbank/kodbank/internal/server/repositories/repomanager"
	"github.com/oklog/ulid/v2"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// IssuedSession is what a successful login hands back to the caller.
type IssuedSession struct {
	SessionID string
	Token     string
	ExpiresAt time.Time
}

// Principal identifies the caller behind a validated token.
type Principal struct {
	Username string
	Role     models.Role
}

// SessionIssuer signs session tokens and records them server-side.
type SessionIssuer struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	tokens      auth.TokenConfig
	now         Clock
}

func NewSessionIssuer(db dbx.DBTX, m repomanager.RepositoryManager, tokens auth.TokenConfig, now Clock) *SessionIssuer {
	if now == nil {
		now = time.Now
	}
	return &SessionIssuer{db: db, repomanager: m, tokens: tokens, now: now}
}

// Issue signs a fresh token for account and persists its record. The token is
// returned only after the record is stored; a store failure yields no token.
func (i *SessionIssuer) Issue(ctx context.Context, account *models.Account) (*IssuedSession, error) {
	issuedAt := i.now()

	token, expiresAt, err := auth.GenerateToken(account.Username, string(account.Role), i.tokens.SecretKey, issuedAt, i.tokens.Validity)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	session := &models.Session{
		ID:        ulid.MustNew(ulid.Timestamp(issuedAt), ulid.DefaultEntropy()).String(),
		AccountID: account.ID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: issuedAt,
	}
	if err := i.repomanager.Sessions(i.db).Create(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	return &IssuedSession{SessionID: session.ID, Token: token, ExpiresAt: expiresAt}, nil
}

// SessionValidator checks presented tokens.
//
// Validation is stateless: it trusts the signature and embedded expiry and
// never reads session records. A token whose records were removed by logout
// therefore keeps validating until it expires.
type SessionValidator struct {
	tokens auth.TokenConfig
	now    Clock
}

func NewSessionValidator(tokens auth.TokenConfig, now Clock) *SessionValidator {
	if now == nil {
		now = time.Now
	}
	return &SessionValidator{tokens: tokens, now: now}
}

// Validate returns the token's principal, common.ErrMalformedToken for bad
// signatures or structure, or common.ErrTokenExpired once exp has passed.
func (v *SessionValidator) Validate(token string) (*Principal, error) {
	if token == "" {
		return nil, common.ErrMalformedToken
	}

	claims, err := auth.ParseToken(token, v.tokens.SecretKey, v.now())
	if err != nil {
		return nil, err
	}

	return &Principal{Username: claims.Subject, Role: models.Role(claims.Role)}, nil
}

// SessionRevoker deletes session records.
type SessionRevoker struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
}

func NewSessionRevoker(db dbx.DBTX, m repomanager.RepositoryManager) *SessionRevoker {
	return &SessionRevoker{db: db, repomanager: m}
}

// RevokeAll removes every session record of username and returns how many
// were deleted. An unknown username is not an error.
func (r *SessionRevoker) RevokeAll(ctx context.Context, username string) (int64, error) {
	account, err := r.repomanager.Accounts(r.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("resolve account: %w", err)
	}

	n, err := r.repomanager.Sessions(r.db).DeleteByAccount(ctx, account.ID)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return n, nil
}
