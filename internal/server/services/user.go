// Package services contains server-side business logic: account management,
// refresh-session handling, single-use action tokens, and the orchestrating
// authentication flows.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avramov/authgate/internal/common"
	"github.com/avramov/authgate/internal/dbx"
	"github.com/avramov/authgate/internal/server/auth"
	"github.com/avramov/authgate/internal/server/models"
	"github.com/avramov/authgate/internal/server/repositories/repomanager"
)

// Hash of an arbitrary throwaway password. Verified against when the email
// is unknown so both credential failures cost one bcrypt comparison.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserService manages account records: registration, credential
// verification, and state changes consumed by the authentication flows.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewUserService constructs a UserService over the given pool.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m}
}

// Register creates an account with a freshly hashed credential. A duplicate
// email yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{Email: email, PasswordHash: hash, Role: models.DefaultRole}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Authenticate verifies the credentials and returns the account. Unknown
// email and wrong password both yield common.ErrorUnauthorized; a correct
// password on a deactivated account yields common.ErrorAccountInactive.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// Burn a comparison so unknown emails are not cheaper to probe.
			auth.CheckPassword(password, dummyPasswordHash)
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}
	if !user.Active {
		return nil, common.ErrorAccountInactive
	}
	return user, nil
}

// GetByEmail returns the account for the email, or common.ErrorNotFound.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByEmail(ctx, email)
}

// GetByID returns the account by id, or common.ErrorNotFound.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// UpdatePasswordTx replaces the credential hash inside the caller's
// transaction.
func (s *UserService) UpdatePasswordTx(ctx context.Context, tx dbx.DBTX, userID, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return common.ErrorInternal
	}
	return s.repomanager.Users(tx).UpdatePasswordHash(ctx, userID, hash)
}

// SetVerifiedTx marks the account verified inside the caller's transaction.
func (s *UserService) SetVerifiedTx(ctx context.Context, tx dbx.DBTX, userID string) error {
	return s.repomanager.Users(tx).SetVerified(ctx, userID)
}
