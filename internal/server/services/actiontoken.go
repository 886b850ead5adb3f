package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/avramov/authgate/internal/common"
	"github.com/avramov/authgate/internal/dbx"
	"github.com/avramov/authgate/internal/server/auth"
	"github.com/avramov/authgate/internal/server/models"
	"github.com/avramov/authgate/internal/server/repositories/repomanager"
)

// ActionTokenService manages single-use tokens for password reset and email
// verification. Both purposes share one lifecycle: issuing a token
// invalidates every earlier unused token of the same purpose for the user,
// so only the latest link in the user's inbox works.
type ActionTokenService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validity    time.Duration
}

// NewActionTokenService constructs an ActionTokenService.
func NewActionTokenService(db *sql.DB, m repomanager.RepositoryManager, validity time.Duration) *ActionTokenService {
	return &ActionTokenService{db: db, repomanager: m, validity: validity}
}

// Issue mints a fresh token for the user and purpose. Invalidation of prior
// tokens and insertion of the new one commit atomically; a failure leaves
// the previous token usable.
func (s *ActionTokenService) Issue(ctx context.Context, userID string, purpose models.ActionTokenPurpose, ip string) (*models.ActionToken, error) {
	token, err := auth.NewActionToken()
	if err != nil {
		return nil, common.ErrorInternal
	}

	at := &models.ActionToken{
		Token:     token,
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: time.Now().UTC().Add(s.validity),
		IPAddress: ip,
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.ActionTokens(tx)
		if _, err := repo.InvalidateUnused(ctx, userID, purpose, time.Now().UTC()); err != nil {
			return err
		}
		_, err := repo.Create(ctx, at)
		return err
	}); err != nil {
		return nil, common.ErrorInternal
	}
	return at, nil
}

// Find resolves the token string for the purpose. Absent and expired tokens
// collapse into common.ErrorInvalidToken. Used tokens are returned as
// stored: whether a consumed token is an error depends on the flow, so that
// decision stays with the caller.
func (s *ActionTokenService) Find(ctx context.Context, token string, purpose models.ActionTokenPurpose) (*models.ActionToken, error) {
	at, err := s.repomanager.ActionTokens(s.db).Find(ctx, token, purpose)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidToken
		}
		return nil, common.ErrorInternal
	}
	if at.Expired(time.Now().UTC()) {
		return nil, common.ErrorInvalidToken
	}
	return at, nil
}

// MarkUsedTx consumes the token inside the caller's transaction.
func (s *ActionTokenService) MarkUsedTx(ctx context.Context, tx dbx.DBTX, id string) error {
	return s.repomanager.ActionTokens(tx).MarkUsed(ctx, id, time.Now().UTC())
}

// MarkUsed consumes the token outside any transaction.
func (s *ActionTokenService) MarkUsed(ctx context.Context, id string) error {
	return s.repomanager.ActionTokens(s.db).MarkUsed(ctx, id, time.Now().UTC())
}

// SweepExpired deletes tokens past expiry and returns the count removed.
func (s *ActionTokenService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repomanager.ActionTokens(s.db).DeleteExpired(ctx, time.Now().UTC())
}
