package repomanager

import (
	"context"
	"database/sql"
	"strings"

	"github.com/samber/oops"
)

// Open connects to the configured database, applies migrations and returns
// the matching manager. For DriverMemory the returned *sql.DB is nil.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	var (
		m          RepositoryManager
		driverName string
	)

	switch driver {
	case DriverMemory:
		return nil, NewInMemoryRepositoryManager(), nil
	case DriverPostgres:
		m, driverName = NewPostgresRepositoryManager(), "pgx"
	case DriverSQLite:
		m, driverName = NewSQLiteRepositoryManager(), "sqlite"
		dsn = sqliteDSN(dsn)
	default:
		return nil, nil, oops.Code("CONFIG_INVALID").Errorf("unknown database driver %q", driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, nil, oops.Code("DB_CONNECT_FAILED").With("driver", driver).Wrap(err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, oops.Code("DB_CONNECT_FAILED").With("driver", driver).Wrap(err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return db, m, nil
}

// sqliteDSN turns on foreign key enforcement for every connection opened
// from dsn.
func sqliteDSN(dsn string) string {
	const fk = "_pragma=foreign_keys(1)"
	if strings.Contains(dsn, fk) {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + fk
	}
	return dsn + "?" + fk
}
