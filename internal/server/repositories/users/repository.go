// Package users declares the repository contract for account records.
package users

import (
	"context"

	"github.com/avramov/authgate/internal/server/models"
)

// Repository defines persistence operations for accounts.
type Repository interface {
	// Create inserts a new account. A duplicate email yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the account with the exact email, or
	// common.ErrorNotFound. Lookup is case-sensitive against the stored value.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the account by id, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdatePasswordHash replaces the stored credential hash.
	UpdatePasswordHash(ctx context.Context, id string, hash string) error

	// SetVerified marks the account's email as verified. Setting an already
	// verified account is a no-op at the data level.
	SetVerified(ctx context.Context, id string) error
}
