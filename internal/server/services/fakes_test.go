package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/avramov/authgate/internal/dbx"
	"github.com/avramov/authgate/internal/logging"
	"github.com/avramov/authgate/internal/server/config"
	"github.com/avramov/authgate/internal/server/models"
	"github.com/avramov/authgate/internal/server/notifications"
	actiontokensrepo "github.com/avramov/authgate/internal/server/repositories/actiontokens"
	sessionsrepo "github.com/avramov/authgate/internal/server/repositories/sessions"
	usersrepo "github.com/avramov/authgate/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- fake repositories ---

type fakeUsersRepo struct {
	createOut *models.User
	createErr error

	byEmailOut *models.User
	byEmailErr error

	byIDOut *models.User
	byIDErr error

	updateErr   error
	updatedID   string
	updatedHash string

	setVerifiedErr error
	verifiedID     string
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = "u1"
	u.Active = true
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.byEmailErr != nil {
		return nil, f.byEmailErr
	}
	return f.byEmailOut, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.byIDOut, nil
}

func (f *fakeUsersRepo) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedID = id
	f.updatedHash = hash
	return nil
}

func (f *fakeUsersRepo) SetVerified(ctx context.Context, id string) error {
	if f.setVerifiedErr != nil {
		return f.setVerifiedErr
	}
	f.verifiedID = id
	return nil
}

type fakeSessionsRepo struct {
	createErr error
	created   []*models.Session

	findOut *models.Session
	findErr error

	revokeErr error
	revoked   []string

	revokeAllN    int64
	revokeAllErr  error
	revokeAllUser string

	deleteN   int64
	deleteErr error
	swept     bool
}

func (f *fakeSessionsRepo) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	s.ID = "s1"
	s.CreatedAt = time.Now()
	f.created = append(f.created, s)
	return s, nil
}

func (f *fakeSessionsRepo) Find(ctx context.Context, token string) (*models.Session, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeSessionsRepo) Revoke(ctx context.Context, token string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked = append(f.revoked, token)
	return nil
}

func (f *fakeSessionsRepo) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	if f.revokeAllErr != nil {
		return 0, f.revokeAllErr
	}
	f.revokeAllUser = userID
	return f.revokeAllN, nil
}

func (f *fakeSessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.swept = true
	return f.deleteN, f.deleteErr
}

type fakeActionTokensRepo struct {
	createErr error
	created   []*models.ActionToken

	findOut *models.ActionToken
	findErr error

	markUsedErr error
	markedUsed  []string

	invalidateN   int64
	invalidateErr error

	deleteN   int64
	deleteErr error
	swept     bool

	// call order across Issue's transaction
	ops []string
}

func (f *fakeActionTokensRepo) Create(ctx context.Context, t *models.ActionToken) (*models.ActionToken, error) {
	f.ops = append(f.ops, "create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	t.ID = "at1"
	t.CreatedAt = time.Now()
	f.created = append(f.created, t)
	return t, nil
}

func (f *fakeActionTokensRepo) Find(ctx context.Context, token string, purpose models.ActionTokenPurpose) (*models.ActionToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeActionTokensRepo) MarkUsed(ctx context.Context, id string, usedAt time.Time) error {
	if f.markUsedErr != nil {
		return f.markUsedErr
	}
	f.markedUsed = append(f.markedUsed, id)
	return nil
}

func (f *fakeActionTokensRepo) InvalidateUnused(ctx context.Context, userID string, purpose models.ActionTokenPurpose, usedAt time.Time) (int64, error) {
	f.ops = append(f.ops, "invalidate")
	if f.invalidateErr != nil {
		return 0, f.invalidateErr
	}
	return f.invalidateN, nil
}

func (f *fakeActionTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.swept = true
	return f.deleteN, f.deleteErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	s *fakeSessionsRepo
	a *fakeActionTokensRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.u }
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository {
	return m.s
}
func (m *fakeRepoManager) ActionTokens(db dbx.DBTX) actiontokensrepo.Repository {
	return m.a
}

// --- fake producer ---

type fakeProducer struct {
	sent []notifications.Message
	err  error
}

func (f *fakeProducer) Send(ctx context.Context, msg notifications.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

// --- service wiring ---

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = "k"
	cfg.AccessTokenValidityDuration = time.Hour
	cfg.FrontendURL = "https://app.example.com"
	return cfg
}

func newAuthServiceWithFakes(t *testing.T, db *sql.DB, rm *fakeRepoManager, producer *fakeProducer) *AuthService {
	t.Helper()
	cfg := testConfig()
	users := NewUserService(db, rm)
	sessions := NewSessionService(db, rm, cfg.RefreshTokenValidityDuration, cfg.RefreshRotationEnabled)
	tokens := NewActionTokenService(db, rm, cfg.ActionTokenValidityDuration)
	return NewAuthService(db, users, sessions, tokens, producer, notifications.NewStaticResolver(), testLogger(), cfg)
}
