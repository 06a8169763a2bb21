package metadata

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"

	"github.com/kodbank/kodbank/internal/dbx"
	"github.com/samber/oops"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.Code("METADATA_READ_FAILED").With("key", key).Wrapf(err, "failed to get metadata[%s]", key)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return oops.Code("METADATA_WRITE_FAILED").With("key", key).Wrapf(err, "failed to set metadata[%s]", key)
	}
	return nil
}

// SetMany upserts all values in one statement, so either every key is
// written or none is.
func (r *SQLiteRepository) SetMany(ctx context.Context, values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	placeholders := make([]string, 0, len(keys))
	args := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		placeholders = append(placeholders, "(?, ?)")
		args = append(args, k, values[k])
	}

	query := `INSERT INTO metadata (key, value) VALUES ` + strings.Join(placeholders, ", ") + `
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return oops.Code("METADATA_WRITE_FAILED").With("keys", keys).Wrapf(err, "failed to set metadata %v", keys)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return oops.Code("METADATA_WRITE_FAILED").With("key", key).Wrapf(err, "failed to delete metadata[%s]", key)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata`)
	if err != nil {
		return oops.Code("METADATA_WRITE_FAILED").Wrapf(err, "failed to clear metadata")
	}
	return nil
}
