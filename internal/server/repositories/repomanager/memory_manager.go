package repomanager

import (
	"context"
	"database/sql"

	"github.com/kodbank/kodbank/internal/dbx"
	"github.com/kodbank/kodbank/internal/server/repositories/accounts"
	"github.com/kodbank/kodbank/internal/server/repositories/memory"
	"github.com/kodbank/kodbank/internal/server/repositories/sessions"
)

// InMemoryRepositoryManager serves every repository from one shared
// memory.Store. The DBTX arguments are ignored.
type InMemoryRepositoryManager struct {
	store *memory.Store
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

func (m *InMemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository {
	return memory.NewAccountRepository(m.store)
}

func (m *InMemoryRepositoryManager) Sessions(dbx.DBTX) sessions.Repository {
	return memory.NewSessionRepository(m.store)
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: memory.NewStore()}
}
