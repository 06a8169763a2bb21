package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kodbank/kodbank/internal/common"
	"github.com/kodbank/kodbank/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func account(id, username, email string) *models.Account {
	return &models.Account{ID: id, Username: username, Email: email, Role: models.RoleCustomer}
}

func TestAccountRepository_CreateAndLookup(t *testing.T) {
	repo := NewAccountRepository(NewStore())
	ctx := context.Background()

	phone := "555"
	a := account("1", "alice", "a@x.io")
	a.Phone = &phone
	_, err := repo.Create(ctx, a)
	require.NoError(t, err)

	got, err := repo.GetByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	*got.Phone = "changed"
	again, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "555", *again.Phone, "returned accounts must be copies")

	_, err = repo.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAccountRepository_Duplicates(t *testing.T) {
	repo := NewAccountRepository(NewStore())
	ctx := context.Background()

	_, err := repo.Create(ctx, account("1", "alice", "a@x.io"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, account("2", "alice", "other@x.io"))
	assert.ErrorIs(t, err, common.ErrDuplicateIdentity)

	_, err = repo.Create(ctx, account("3", "alice2", "a@x.io"))
	assert.ErrorIs(t, err, common.ErrDuplicateIdentity)

	_, err = repo.GetByEmail(ctx, "other@x.io")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAccountRepository_ConcurrentSameIdentity(t *testing.T) {
	repo := NewAccountRepository(NewStore())

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := repo.Create(context.Background(), account(fmt.Sprint(i), "carol", "c@x.io")); err == nil {
				ok.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
}

func TestAccountRepository_CancelledContext(t *testing.T) {
	repo := NewAccountRepository(NewStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Create(ctx, account("1", "alice", "a@x.io"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionRepository(t *testing.T) {
	store := NewStore()
	accounts := NewAccountRepository(store)
	sessions := NewSessionRepository(store)
	ctx := context.Background()

	_, err := accounts.Create(ctx, account("acc-1", "alice", "a@x.io"))
	require.NoError(t, err)

	require.NoError(t, sessions.Create(ctx, &models.Session{ID: "s1", AccountID: "acc-1", ExpiresAt: t0}))
	require.NoError(t, sessions.Create(ctx, &models.Session{ID: "s2", AccountID: "acc-1", ExpiresAt: t0.Add(time.Hour)}))
	assert.ErrorIs(t, sessions.Create(ctx, &models.Session{ID: "s3", AccountID: "ghost"}), common.ErrNotFound)

	n, err := sessions.CountByAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	swept, err := sessions.DeleteExpired(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	deleted, err := sessions.DeleteByAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = sessions.DeleteByAccount(ctx, "acc-1")
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
