// Package actiontokens declares the repository contract for single-use
// action tokens (password reset, email verification). One table serves both
// purposes; every query is scoped by purpose.
package actiontokens

import (
	"context"
	"time"

	"github.com/avramov/authgate/internal/server/models"
)

// Repository defines persistence operations for action tokens.
type Repository interface {
	// Create stores a new token row, filling database-generated fields.
	Create(ctx context.Context, token *models.ActionToken) (*models.ActionToken, error)

	// Find looks up a token by its opaque string and purpose, returning
	// common.ErrorNotFound when absent. Used/expired state is returned
	// as stored; policy decisions belong to the service layer.
	Find(ctx context.Context, token string, purpose models.ActionTokenPurpose) (*models.ActionToken, error)

	// MarkUsed consumes the token, recording when it was redeemed.
	MarkUsed(ctx context.Context, id string, usedAt time.Time) error

	// InvalidateUnused marks every unused token of the purpose for the user
	// as used, regardless of expiry, and returns the number of rows touched.
	InvalidateUnused(ctx context.Context, userID string, purpose models.ActionTokenPurpose, usedAt time.Time) (int64, error)

	// DeleteExpired removes tokens past expiry, independent of used state.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
