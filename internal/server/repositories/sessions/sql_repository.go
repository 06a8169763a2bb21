package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/kodbank/kodbank/internal/common"
	"github.com/kodbank/kodbank/internal/dbx"
	"github.com/kodbank/kodbank/internal/server/models"
	"github.com/samber/oops"
)

type queries struct {
	insert          string
	deleteByAccount string
	countByAccount  string
	deleteExpired   string
}

var postgresQueries = queries{
	insert: `INSERT INTO sessions (id, account_id, token, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
	deleteByAccount: `DELETE FROM sessions WHERE account_id = $1`,
	countByAccount:  `SELECT COUNT(*) FROM sessions WHERE account_id = $1`,
	deleteExpired:   `DELETE FROM sessions WHERE expires_at <= $1`,
}

var sqliteQueries = queries{
	insert: `INSERT INTO sessions (id, account_id, token, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
	deleteByAccount: `DELETE FROM sessions WHERE account_id = ?`,
	countByAccount:  `SELECT COUNT(*) FROM sessions WHERE account_id = ?`,
	deleteExpired:   `DELETE FROM sessions WHERE expires_at <= ?`,
}

type SQLRepository struct {
	db dbx.DBTX
	q  queries
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries}
}

// NewSQLiteRepository expects times to be written in UTC so that the
// text comparison in DeleteExpired orders them correctly.
func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries}
}

func (r *SQLRepository) Create(ctx context.Context, session *models.Session) error {
	_, err := r.db.ExecContext(ctx, r.q.insert,
		session.ID,
		session.AccountID,
		session.Token,
		session.ExpiresAt.UTC(),
		session.CreatedAt.UTC(),
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("account_id", session.AccountID).
			Wrap(fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err))
	}
	return nil
}

func (r *SQLRepository) DeleteByAccount(ctx context.Context, accountID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.q.deleteByAccount, accountID)
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_FAILED").
			With("account_id", accountID).
			Wrap(fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err))
	}
	return res.RowsAffected()
}

func (r *SQLRepository) CountByAccount(ctx context.Context, accountID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, r.q.countByAccount, accountID).Scan(&n); err != nil {
		return 0, oops.Code("SESSION_COUNT_FAILED").
			With("account_id", accountID).
			Wrap(fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err))
	}
	return n, nil
}

func (r *SQLRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.q.deleteExpired, now.UTC())
	if err != nil {
		return 0, oops.Code("SESSION_SWEEP_FAILED").
			Wrap(fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err))
	}
	return res.RowsAffected()
}
