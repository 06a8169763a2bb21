package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kodbank/kodbank/internal/common"
	"github.com/kodbank/kodbank/internal/dbx"
	"github.com/kodbank/kodbank/internal/server/models"
	"github.com/samber/oops"
)

type queries struct {
	insert     string
	byEmail    string
	byUsername string
}

var postgresQueries = queries{
	insert: `INSERT INTO accounts (id, username, email, password_hash, balance, phone, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	byEmail: `SELECT id, username, email, password_hash, balance, phone, role, created_at
		 FROM accounts WHERE email = $1`,
	byUsername: `SELECT id, username, email, password_hash, balance, phone, role, created_at
		 FROM accounts WHERE username = $1`,
}

var sqliteQueries = queries{
	insert: `INSERT INTO accounts (id, username, email, password_hash, balance, phone, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	byEmail: `SELECT id, username, email, password_hash, balance, phone, role, created_at
		 FROM accounts WHERE email = ?`,
	byUsername: `SELECT id, username, email, password_hash, balance, phone, role, created_at
		 FROM accounts WHERE username = ?`,
}

// SQLRepository is a Repository over database/sql. The dialect only changes
// placeholder syntax; uniqueness is always left to the table constraints.
type SQLRepository struct {
	db dbx.DBTX
	q  queries
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: postgresQueries}
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db, q: sqliteQueries}
}

func (r *SQLRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	_, err := r.db.ExecContext(ctx, r.q.insert,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Balance.StringFixed(2),
		account.Phone,
		string(account.Role),
		account.CreatedAt,
	)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, oops.Code("ACCOUNT_DUPLICATE").
				With("username", account.Username).
				Wrap(fmt.Errorf("%w: %w", common.ErrDuplicateIdentity, err))
		}
		return nil, oops.Code("ACCOUNT_CREATE_FAILED").
			With("username", account.Username).
			Wrap(fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err))
	}

	return account, nil
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.getOne(ctx, r.q.byEmail, email, "email")
}

func (r *SQLRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.getOne(ctx, r.q.byUsername, username, "username")
}

func (r *SQLRepository) getOne(ctx context.Context, query, key, field string) (*models.Account, error) {
	var (
		account models.Account
		phone   sql.NullString
		role    string
	)

	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Balance,
		&phone,
		&role,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, oops.Code("ACCOUNT_LOOKUP_FAILED").
			With(field, key).
			Wrap(fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err))
	}

	if phone.Valid {
		account.Phone = &phone.String
	}
	account.Role = models.Role(role)

	return &account, nil
}
