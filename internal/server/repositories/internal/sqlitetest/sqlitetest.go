// Package sqlitetest opens migrated in-memory SQLite databases for
// repository tests.
package sqlitetest

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	"github.com/kodbank/kodbank/internal/server/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Open returns an in-memory database with the server schema applied.
// The pool is pinned to one connection so every query sees the same database.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}

	fsys, err := fs.Sub(migrations.Migrations, migrations.SQLiteDir)
	if err != nil {
		t.Fatalf("migrations fs: %v", err)
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		t.Fatalf("goose provider: %v", err)
	}
	if _, err := p.Up(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}
