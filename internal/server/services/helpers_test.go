package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kodbank/kodbank/internal/dbx"
	"github.com/kodbank/kodbank/internal/server/audit"
	"github.com/kodbank/kodbank/internal/server/auth"
	"github.com/kodbank/kodbank/internal/server/models"
	"github.com/kodbank/kodbank/internal/server/repositories/accounts"
	"github.com/kodbank/kodbank/internal/server/repositories/repomanager"
	"github.com/kodbank/kodbank/internal/server/repositories/sessions"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

var testTokens = auth.TokenConfig{SecretKey: []byte("test-secret"), Validity: time.Hour}

// fakeClock is a settable Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingSessions wraps a sessions.Repository and remembers created records.
type recordingSessions struct {
	sessions.Repository
	mu        sync.Mutex
	created   []models.Session
	createErr error
	deleteErr error
}

func (r *recordingSessions) Create(ctx context.Context, s *models.Session) error {
	if r.createErr != nil {
		return r.createErr
	}
	if err := r.Repository.Create(ctx, s); err != nil {
		return err
	}
	r.mu.Lock()
	r.created = append(r.created, *s)
	r.mu.Unlock()
	return nil
}

func (r *recordingSessions) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	if r.deleteErr != nil {
		return 0, r.deleteErr
	}
	return r.Repository.DeleteByAccount(ctx, accountID)
}

// testManager is an in-memory RepositoryManager whose repositories can be
// made to fail.
type testManager struct {
	*repomanager.InMemoryRepositoryManager
	sessions      *recordingSessions
	accountsErr   error
	accountsCalls int
}

func newTestManager() *testManager {
	inner := repomanager.NewInMemoryRepositoryManager()
	return &testManager{
		InMemoryRepositoryManager: inner,
		sessions:                  &recordingSessions{Repository: inner.Sessions(nil)},
	}
}

func (m *testManager) Accounts(db dbx.DBTX) accounts.Repository {
	m.accountsCalls++
	if m.accountsErr != nil {
		return failingAccounts{err: m.accountsErr}
	}
	return m.InMemoryRepositoryManager.Accounts(db)
}

func (m *testManager) Sessions(dbx.DBTX) sessions.Repository {
	return m.sessions
}

type failingAccounts struct{ err error }

func (f failingAccounts) Create(context.Context, *models.Account) (*models.Account, error) {
	return nil, f.err
}
func (f failingAccounts) GetByEmail(context.Context, string) (*models.Account, error) {
	return nil, f.err
}
func (f failingAccounts) GetByUsername(context.Context, string) (*models.Account, error) {
	return nil, f.err
}

// capturePublisher records audit events.
type capturePublisher struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, e audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	svc   *AuthService
	m     *testManager
	clock *fakeClock
	pub   *capturePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := newTestManager()
	clock := newFakeClock(t0)
	pub := &capturePublisher{}
	svc := NewAuthService(nil, m, Options{
		Tokens:         testTokens,
		DefaultBalance: decimal.RequireFromString("100000.00"),
		Hasher:         auth.NewBcryptHasher(bcrypt.MinCost),
		Publisher:      pub,
		Clock:          clock.Now,
	})
	return &fixture{svc: svc, m: m, clock: clock, pub: pub}
}

func (f *fixture) register(t *testing.T, username, email, password string) *models.Account {
	t.Helper()
	a, err := f.svc.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: password})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return a
}
