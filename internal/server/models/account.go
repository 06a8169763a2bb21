// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the authorization label carried by an account and its tokens.
type Role string

const RoleCustomer Role = "Customer"

// Account is a registered bank customer.
type Account struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Balance      decimal.Decimal `json:"balance"`
	Phone        *string         `json:"phone,omitempty"`
	Role         Role            `json:"role"`
	CreatedAt    time.Time       `json:"created_at"`
}
