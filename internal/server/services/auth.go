package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avramov/authgate/internal/common"
	"github.com/avramov/authgate/internal/dbx"
	"github.com/avramov/authgate/internal/logging"
	"github.com/avramov/authgate/internal/server/auth"
	"github.com/avramov/authgate/internal/server/config"
	"github.com/avramov/authgate/internal/server/models"
	"github.com/avramov/authgate/internal/server/notifications"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService orchestrates the authentication flows over the user, session
// and action-token services: sign-up, login, refresh, logout, password
// reset, and email verification.
//
// Notifications are best-effort: a queue failure is logged and the flow's
// primary mutation stands.
type AuthService struct {
	db                          *sql.DB
	users                       *UserService
	sessions                    *SessionService
	tokens                      *ActionTokenService
	producer                    notifications.Producer
	templates                   notifications.TemplateResolver
	logger                      logging.Logger
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	frontendURL                 string
}

// NewAuthService wires the authentication flows together.
func NewAuthService(
	db *sql.DB,
	users *UserService,
	sessions *SessionService,
	tokens *ActionTokenService,
	producer notifications.Producer,
	templates notifications.TemplateResolver,
	logger logging.Logger,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		db:                          db,
		users:                       users,
		sessions:                    sessions,
		tokens:                      tokens,
		producer:                    producer,
		templates:                   templates,
		logger:                      logger,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		frontendURL:                 cfg.FrontendURL,
	}
}

// SignUp registers the account, emails a verification link, and opens a
// first session so the client is signed in right away. The account is
// created even when the verification link cannot be produced or queued; the
// user can request a new link later.
func (s *AuthService) SignUp(ctx context.Context, email, password, deviceInfo, ip string) (*TokenPair, error) {
	user, err := s.users.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(ctx, user.ID, models.PurposeEmailVerification, ip)
	if err != nil {
		s.logger.Error(ctx, "issuing verification token failed", "user_id", user.ID, "error", err)
	} else {
		s.notify(ctx, notifications.KindEmailVerification, user.Email, map[string]string{
			"link": fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, token.Token),
		})
	}

	session, err := s.sessions.Create(ctx, user.ID, deviceInfo, ip)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return s.tokenPair(user, session)
}

// Login verifies credentials and opens a new session alongside a fresh
// access token.
func (s *AuthService) Login(ctx context.Context, email, password, deviceInfo, ip string) (*TokenPair, error) {
	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Create(ctx, user.ID, deviceInfo, ip)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return s.tokenPair(user, session)
}

// Refresh exchanges a live refresh token for a new pair. Rotation happens
// inside SessionService; a deactivated account cannot refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	session, err := s.sessions.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !user.Active {
		return nil, common.ErrorAccountInactive
	}
	return s.tokenPair(user, session)
}

// Logout revokes the presented refresh token. Unknown tokens succeed.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.Revoke(ctx, refreshToken)
}

// LogoutAll revokes every session of the user.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int64, error) {
	return s.sessions.RevokeAll(ctx, userID)
}

// ForgotPassword issues a reset token and emails the link. The response is
// identical whether or not the email is registered, so the endpoint cannot
// be used to enumerate accounts.
func (s *AuthService) ForgotPassword(ctx context.Context, email, ip string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return common.ErrorInternal
	}
	if !user.Active {
		s.logger.Info(ctx, "password reset requested for inactive account", "user_id", user.ID)
		return nil
	}

	token, err := s.tokens.Issue(ctx, user.ID, models.PurposePasswordReset, ip)
	if err != nil {
		return common.ErrorInternal
	}
	s.notify(ctx, notifications.KindPasswordReset, user.Email, map[string]string{
		"link": fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token.Token),
	})
	return nil
}

// ResetPassword redeems a reset token: the credential change, token
// consumption, and revocation of every open session commit atomically.
// A consumed reset token is never accepted again, and a deactivated account
// cannot reset its password.
func (s *AuthService) ResetPassword(ctx context.Context, tokenString, newPassword string) error {
	token, err := s.tokens.Find(ctx, tokenString, models.PurposePasswordReset)
	if err != nil {
		return err
	}
	if token.Used {
		return common.ErrorInvalidToken
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorInvalidToken
		}
		return common.ErrorInternal
	}
	if !user.Active {
		return common.ErrorAccountInactive
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.tokens.MarkUsedTx(ctx, tx, token.ID); err != nil {
			return err
		}
		if err := s.users.UpdatePasswordTx(ctx, tx, token.UserID, newPassword); err != nil {
			return err
		}
		_, err := s.sessions.RevokeAllTx(ctx, tx, token.UserID)
		return err
	}); err != nil {
		return common.ErrorInternal
	}

	s.notify(ctx, notifications.KindPasswordChanged, user.Email, nil)
	return nil
}

// VerifyEmail redeems a verification token and returns a fresh access token.
//
// Redemption is idempotent for verified accounts: clicking an old link after
// the account is already verified succeeds. A consumed token presented for a
// still-unverified account is rejected.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenString string) (string, error) {
	token, err := s.tokens.Find(ctx, tokenString, models.PurposeEmailVerification)
	if err != nil {
		return "", err
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorInvalidToken
		}
		return "", common.ErrorInternal
	}

	if user.Verified {
		if !token.Used {
			if err := s.tokens.MarkUsed(ctx, token.ID); err != nil {
				s.logger.Error(ctx, "consuming verification token failed", "token_id", token.ID, "error", err)
			}
		}
		return s.accessToken(user)
	}
	if token.Used {
		return "", common.ErrorInvalidToken
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.tokens.MarkUsedTx(ctx, tx, token.ID); err != nil {
			return err
		}
		return s.users.SetVerifiedTx(ctx, tx, token.UserID)
	}); err != nil {
		return "", common.ErrorInternal
	}

	user.Verified = true
	return s.accessToken(user)
}

// ResendVerification issues a new verification token for an unverified
// account. Unknown emails succeed silently; verified accounts are told so.
func (s *AuthService) ResendVerification(ctx context.Context, email, ip string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return common.ErrorInternal
	}
	if user.Verified {
		return common.ErrorAlreadyVerified
	}

	token, err := s.tokens.Issue(ctx, user.ID, models.PurposeEmailVerification, ip)
	if err != nil {
		return common.ErrorInternal
	}
	s.notify(ctx, notifications.KindEmailVerification, user.Email, map[string]string{
		"link": fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, token.Token),
	})
	return nil
}

// ValidateAccessToken verifies a bearer token and returns its claims.
func (s *AuthService) ValidateAccessToken(tokenString string) (*auth.Claims, error) {
	return auth.ParseAccessToken(tokenString, s.jwtSecret)
}

func (s *AuthService) accessToken(user *models.User) (string, error) {
	access, err := auth.GenerateAccessToken(user, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return access, nil
}

func (s *AuthService) tokenPair(user *models.User, session *models.Session) (*TokenPair, error) {
	access, err := s.accessToken(user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: session.Token}, nil
}

func (s *AuthService) notify(ctx context.Context, kind notifications.Kind, to string, data map[string]string) {
	tpl := s.templates.Resolve(kind)
	msg := notifications.Message{
		To:           to,
		TemplateSlug: tpl.Slug,
		Language:     tpl.Language,
		Priority:     tpl.Priority,
		Data:         data,
	}
	if err := s.producer.Send(ctx, msg); err != nil {
		s.logger.Error(ctx, "queueing notification failed", "template_slug", tpl.Slug, "error", err)
	}
}
