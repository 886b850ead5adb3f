package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avramov/authgate/internal/common"
	"github.com/avramov/authgate/internal/dbx"
	"github.com/avramov/authgate/internal/server/auth"
	"github.com/avramov/authgate/internal/server/models"
	"github.com/avramov/authgate/internal/server/repositories/repomanager"
)

// SessionService manages persisted refresh sessions: creation, validity
// checks, rotation, and revocation. All expiry math uses UTC.
type SessionService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	validity        time.Duration
	rotationEnabled bool
}

// NewSessionService constructs a SessionService.
func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, validity time.Duration, rotationEnabled bool) *SessionService {
	return &SessionService{
		db:              db,
		repomanager:     m,
		validity:        validity,
		rotationEnabled: rotationEnabled,
	}
}

// Create opens a new session for the user. DeviceInfo and ip are optional
// audit fields.
func (s *SessionService) Create(ctx context.Context, userID, deviceInfo, ip string) (*models.Session, error) {
	return s.createOn(ctx, s.db, userID, deviceInfo, ip)
}

func (s *SessionService) createOn(ctx context.Context, db dbx.DBTX, userID, deviceInfo, ip string) (*models.Session, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return nil, common.ErrorInternal
	}

	session := &models.Session{
		Token:      token,
		UserID:     userID,
		ExpiresAt:  time.Now().UTC().Add(s.validity),
		DeviceInfo: deviceInfo,
		IPAddress:  ip,
	}
	created, err := s.repomanager.Sessions(db).Create(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("error creating session: %w", err)
	}
	return created, nil
}

// Verify resolves the token to a live session. Absent, revoked and expired
// sessions all collapse into common.ErrorInvalidToken.
func (s *SessionService) Verify(ctx context.Context, token string) (*models.Session, error) {
	session, err := s.repomanager.Sessions(s.db).Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidToken
		}
		return nil, common.ErrorInternal
	}
	if !session.Valid(time.Now().UTC()) {
		return nil, common.ErrorInvalidToken
	}
	return session, nil
}

// Rotate exchanges a live session for its replacement. The new session is
// created and the old one revoked in a single transaction, so a failure
// never leaves the user without a valid session. With rotation disabled the
// presented session is returned unchanged.
func (s *SessionService) Rotate(ctx context.Context, token string) (*models.Session, error) {
	session, err := s.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	if !s.rotationEnabled {
		return session, nil
	}

	var replacement *models.Session
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var createErr error
		replacement, createErr = s.createOn(ctx, tx, session.UserID, session.DeviceInfo, session.IPAddress)
		if createErr != nil {
			return createErr
		}
		return s.repomanager.Sessions(tx).Revoke(ctx, token)
	}); err != nil {
		return nil, common.ErrorInternal
	}
	return replacement, nil
}

// Revoke marks the session revoked. Unknown tokens are ignored so logout
// is idempotent.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if err := s.repomanager.Sessions(s.db).Revoke(ctx, token); err != nil {
		return common.ErrorInternal
	}
	return nil
}

// RevokeAll revokes every live session of the user and reports how many
// were touched.
func (s *SessionService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	return s.RevokeAllTx(ctx, s.db, userID)
}

// RevokeAllTx is RevokeAll running on the caller's transaction handle.
func (s *SessionService) RevokeAllTx(ctx context.Context, tx dbx.DBTX, userID string) (int64, error) {
	n, err := s.repomanager.Sessions(tx).RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, common.ErrorInternal
	}
	return n, nil
}

// SweepExpired deletes sessions past expiry and returns the count removed.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx, time.Now().UTC())
}
