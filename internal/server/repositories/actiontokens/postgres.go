package actiontokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avramov/authgate/internal/common"
	"github.com/avramov/authgate/internal/dbx"
	"github.com/avramov/authgate/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.ActionToken) (*models.ActionToken, error) {
	query := `
		INSERT INTO action_tokens (token, user_id, purpose, expires_at, ip_address)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		token.Token, token.UserID, token.Purpose, token.ExpiresAt, token.IPAddress).
		Scan(&token.ID, &token.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string, purpose models.ActionTokenPurpose) (*models.ActionToken, error) {
	query := `
		SELECT id, token, user_id, purpose, expires_at, used, used_at, ip_address, created_at
		FROM action_tokens
		WHERE token = $1 AND purpose = $2
	`
	at := &models.ActionToken{}
	var usedAt sql.NullTime
	var ipAddress sql.NullString
	err := r.db.QueryRowContext(ctx, query, token, purpose).Scan(
		&at.ID, &at.Token, &at.UserID, &at.Purpose, &at.ExpiresAt,
		&at.Used, &usedAt, &ipAddress, &at.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if usedAt.Valid {
		at.UsedAt = &usedAt.Time
	}
	at.IPAddress = ipAddress.String
	return at, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	query := `
		UPDATE action_tokens
		SET used = TRUE, used_at = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, usedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) InvalidateUnused(ctx context.Context, userID string, purpose models.ActionTokenPurpose, usedAt time.Time) (int64, error) {
	query := `
		UPDATE action_tokens
		SET used = TRUE, used_at = $3
		WHERE user_id = $1 AND purpose = $2 AND NOT used
	`
	res, err := r.db.ExecContext(ctx, query, userID, purpose, usedAt)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM action_tokens
		WHERE expires_at < $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
