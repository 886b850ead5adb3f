// Package sessions declares the repository contract for persisted refresh
// sessions.
package sessions

import (
	"context"
	"time"

	"github.com/avramov/authgate/internal/server/models"
)

// Repository defines operations for storing, retrieving, and revoking
// refresh sessions.
type Repository interface {
	// Create stores a new session row, filling database-generated fields.
	Create(ctx context.Context, session *models.Session) (*models.Session, error)

	// Find looks up a session by its opaque token string, returning
	// common.ErrorNotFound when absent. Validity is not checked here.
	Find(ctx context.Context, token string) (*models.Session, error)

	// Revoke marks the session with the given token revoked. Revoking an
	// absent or already revoked token is not an error.
	Revoke(ctx context.Context, token string) error

	// RevokeAllForUser marks every non-revoked session of the user revoked
	// and returns the number of rows touched.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)

	// DeleteExpired removes sessions whose expiry has passed. Storage
	// hygiene only: expired sessions already fail validity checks.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
