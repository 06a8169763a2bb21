// Package memory keeps accounts and session records in process memory.
// It backs the "memory" database driver and deterministic service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kodbank/kodbank/internal/common"
	"github.com/kodbank/kodbank/internal/server/models"
)

// Store is the shared state behind AccountRepository and SessionRepository.
// Username and email uniqueness is checked under the write lock, so two
// concurrent creates for the same identity cannot both succeed.
type Store struct {
	mu         sync.RWMutex
	accounts   map[string]*models.Account // by id
	byUsername map[string]string
	byEmail    map[string]string
	sessions   map[string]*models.Session // by id
}

func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]*models.Account),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
		sessions:   make(map[string]*models.Session),
	}
}

// AccountRepository implements accounts.Repository over a Store.
type AccountRepository struct {
	s *Store
}

func NewAccountRepository(s *Store) *AccountRepository {
	return &AccountRepository{s: s}
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.byUsername[account.Username]; ok {
		return nil, common.ErrDuplicateIdentity
	}
	if _, ok := r.s.byEmail[account.Email]; ok {
		return nil, common.ErrDuplicateIdentity
	}
	if _, ok := r.s.accounts[account.ID]; ok {
		return nil, common.ErrDuplicateIdentity
	}

	stored := cloneAccount(account)
	r.s.accounts[account.ID] = stored
	r.s.byUsername[account.Username] = account.ID
	r.s.byEmail[account.Email] = account.ID

	return account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.lookup(ctx, func(s *Store) (string, bool) {
		id, ok := s.byEmail[email]
		return id, ok
	})
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.lookup(ctx, func(s *Store) (string, bool) {
		id, ok := s.byUsername[username]
		return id, ok
	})
}

func (r *AccountRepository) lookup(ctx context.Context, index func(*Store) (string, bool)) (*models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := index(r.s)
	if !ok {
		return nil, common.ErrNotFound
	}
	return cloneAccount(r.s.accounts[id]), nil
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	if a.Phone != nil {
		p := *a.Phone
		c.Phone = &p
	}
	return &c
}

// SessionRepository implements sessions.Repository over a Store.
type SessionRepository struct {
	s *Store
}

func NewSessionRepository(s *Store) *SessionRepository {
	return &SessionRepository{s: s}
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.accounts[session.AccountID]; !ok {
		return common.ErrNotFound
	}
	c := *session
	r.s.sessions[session.ID] = &c
	return nil
}

func (r *SessionRepository) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	return r.deleteWhere(ctx, func(s *models.Session) bool { return s.AccountID == accountID })
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(ctx, func(s *models.Session) bool { return !s.ExpiresAt.After(now) })
}

func (r *SessionRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, s := range r.s.sessions {
		if s.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (r *SessionRepository) deleteWhere(ctx context.Context, match func(*models.Session) bool) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, s := range r.s.sessions {
		if match(s) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}
