// Package accounts persists bank customer accounts.
package accounts

import (
	"context"

	"github.com/kodbank/kodbank/internal/server/models"
)

// Repository stores accounts. Create reports common.ErrDuplicateIdentity when
// the username or email is already taken; lookups report common.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
}
