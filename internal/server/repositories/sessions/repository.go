// Package sessions persists the server-side records of issued session tokens.
package sessions

import (
	"context"
	"time"

	"github.com/kodbank/kodbank/internal/server/models"
)

// Repository stores session records. An account may hold any number of them.
type Repository interface {
	Create(ctx context.Context, session *models.Session) error
	DeleteByAccount(ctx context.Context, accountID string) (int64, error)
	CountByAccount(ctx context.Context, accountID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
