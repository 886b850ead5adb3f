package services

import (
	"context"
	"time"

	"github.com/avramov/authgate/internal/logging"
)

// CleanupService periodically deletes expired sessions and action tokens.
// Expired rows are already unusable; the sweep only keeps the tables from
// growing without bound.
type CleanupService struct {
	sessions *SessionService
	tokens   *ActionTokenService
	logger   logging.Logger
	interval time.Duration
}

// NewCleanupService constructs a sweeper with the given period.
func NewCleanupService(sessions *SessionService, tokens *ActionTokenService, logger logging.Logger, interval time.Duration) *CleanupService {
	return &CleanupService{sessions: sessions, tokens: tokens, logger: logger, interval: interval}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *CleanupService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *CleanupService) sweep(ctx context.Context) {
	sessions, err := s.sessions.SweepExpired(ctx)
	if err != nil {
		s.logger.Error(ctx, "sweeping expired sessions failed", "error", err)
	}
	tokens, err := s.tokens.SweepExpired(ctx)
	if err != nil {
		s.logger.Error(ctx, "sweeping expired action tokens failed", "error", err)
	}
	if sessions > 0 || tokens > 0 {
		s.logger.Info(ctx, "expired credentials swept", "sessions", sessions, "action_tokens", tokens)
	}
}
