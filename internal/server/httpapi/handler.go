// Package httpapi exposes the authentication flows over HTTP/JSON. Error
// bodies carry a stable machine-readable code alongside a human message so
// clients can branch without parsing text.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avramov/authgate/internal/common"
	"github.com/avramov/authgate/internal/logging"
	"github.com/avramov/authgate/internal/server/auth"
	"github.com/avramov/authgate/internal/server/ratelimit"
	"github.com/avramov/authgate/internal/server/services"
)

// AuthService is the surface of the service layer consumed by the handlers.
type AuthService interface {
	SignUp(ctx context.Context, email, password, deviceInfo, ip string) (*services.TokenPair, error)
	Login(ctx context.Context, email, password, deviceInfo, ip string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) (int64, error)
	ForgotPassword(ctx context.Context, email, ip string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	VerifyEmail(ctx context.Context, token string) (string, error)
	ResendVerification(ctx context.Context, email, ip string) error
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// Handler holds the HTTP endpoints and their dependencies.
type Handler struct {
	auth    AuthService
	limiter *ratelimit.Limiter
	logger  logging.Logger
}

// NewHandler constructs the HTTP handler set.
func NewHandler(authService AuthService, limiter *ratelimit.Limiter, logger logging.Logger) *Handler {
	return &Handler{auth: authService, limiter: limiter, logger: logger}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newErrorResponse(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, errorResponse{Code: code, Message: message})
}

const refreshTokenCookie = "refresh_token"

type tokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// InitRoutes builds the gin engine with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(requestID(), gin.Recovery())

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.rateLimit(ratelimit.PolicyLogin), h.Login)
		authGroup.POST("/refresh", h.RefreshTokens)
		authGroup.POST("/logout", h.Logout)
		authGroup.POST("/forgot-password", h.rateLimit(ratelimit.PolicyForgotPassword), h.ForgotPassword)
		authGroup.POST("/reset-password", h.rateLimit(ratelimit.PolicyResetPassword), h.ResetPassword)
		authGroup.POST("/verify-email", h.VerifyEmail)

		authGroup.Use(h.authRequired())
		authGroup.POST("/resend-verification", h.rateLimit(ratelimit.PolicyResendVerification), h.ResendVerification)
		authGroup.POST("/logout-all", h.LogoutAll)
		authGroup.GET("/me", h.Me)
	}

	return router
}

// mapError translates service errors into the HTTP error vocabulary.
func (h *Handler) mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorAlreadyExists):
		newErrorResponse(c, http.StatusConflict, "email_taken", "email is already registered")
	case errors.Is(err, common.ErrorUnauthorized):
		newErrorResponse(c, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, common.ErrorAccountInactive):
		newErrorResponse(c, http.StatusForbidden, "account_inactive", "account is deactivated")
	case errors.Is(err, common.ErrorInvalidToken):
		newErrorResponse(c, http.StatusUnauthorized, "invalid_token", "token is invalid or expired")
	case errors.Is(err, common.ErrorAlreadyVerified):
		newErrorResponse(c, http.StatusConflict, "already_verified", "email is already verified")
	default:
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		newErrorResponse(c, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

// POST /auth/register
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	pair, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password, c.Request.UserAgent(), clientIP(c))
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tokensResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// POST /auth/login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, c.Request.UserAgent(), clientIP(c))
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokensResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// POST /auth/refresh
//
// The refresh token is read from the JSON body, or from the refresh_token
// cookie when the body carries none.
func (h *Handler) RefreshTokens(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		newErrorResponse(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.RefreshToken == "" {
		if cookie, err := c.Cookie(refreshTokenCookie); err == nil {
			req.RefreshToken = cookie
		}
	}
	if req.RefreshToken == "" {
		newErrorResponse(c, http.StatusBadRequest, "invalid_request", "refresh token is required")
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokensResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// POST /auth/logout
func (h *Handler) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// POST /auth/logout-all
func (h *Handler) LogoutAll(c *gin.Context) {
	userID := c.GetString(ctxKeyUserID)
	if userID == "" {
		newErrorResponse(c, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	n, err := h.auth.LogoutAll(c.Request.Context(), userID)
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revoked_sessions": n})
}

// GET /auth/me
func (h *Handler) Me(c *gin.Context) {
	userID := c.GetString(ctxKeyUserID)
	if userID == "" {
		newErrorResponse(c, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":    userID,
		"email": c.GetString(ctxKeyEmail),
		"role":  c.GetString(ctxKeyRole),
	})
}

// POST /auth/forgot-password
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email, clientIP(c)); err != nil {
		h.mapError(c, err)
		return
	}

	// Same response whether or not the email exists.
	c.JSON(http.StatusOK, gin.H{"message": "if the email is registered, a reset link has been sent"})
}

// POST /auth/reset-password
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password has been reset"})
}

// POST /auth/verify-email
func (h *Handler) VerifyEmail(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	access, err := h.auth.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "email verified", "access_token": access})
}

// POST /auth/resend-verification
//
// The target account is the one behind the Bearer token, so the endpoint
// cannot be pointed at arbitrary addresses.
func (h *Handler) ResendVerification(c *gin.Context) {
	email := c.GetString(ctxKeyEmail)
	if email == "" {
		newErrorResponse(c, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	if err := h.auth.ResendVerification(c.Request.Context(), email, clientIP(c)); err != nil {
		h.mapError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "a verification link has been sent"})
}
