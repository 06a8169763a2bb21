// Package repomanager vends repository implementations for each supported
// database driver and applies the matching schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/kodbank/kodbank/internal/dbx"
	"github.com/kodbank/kodbank/internal/server/migrations"
	"github.com/kodbank/kodbank/internal/server/repositories/accounts"
	"github.com/kodbank/kodbank/internal/server/repositories/sessions"
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
)

// Database drivers understood by Open.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func runGoose(ctx context.Context, db *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return oops.Code("MIGRATION_FAILED").With("dialect", dialect).Wrap(err)
	}
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return oops.Code("MIGRATION_FAILED").With("dialect", dialect).Wrap(err)
	}
	return nil
}
