package httpapi

import (
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avramov/authgate/internal/server/ratelimit"
)

// Context keys set by middleware for downstream handlers.
const (
	ctxKeyUserID = "UserID"
	ctxKeyEmail  = "Email"
	ctxKeyRole   = "Role"
)

const requestIDHeader = "X-Request-Id"

// requestID tags every request with an id, honoring one assigned upstream.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// authRequired validates the Bearer access token and stores its identity in
// the request context.
func (h *Handler) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			newErrorResponse(c, http.StatusUnauthorized, "unauthorized", "missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			newErrorResponse(c, http.StatusUnauthorized, "unauthorized", "invalid authorization header")
			return
		}

		claims, err := h.auth.ValidateAccessToken(parts[1])
		if err != nil {
			newErrorResponse(c, http.StatusUnauthorized, "invalid_token", "token is invalid or expired")
			return
		}

		c.Set(ctxKeyUserID, claims.Subject)
		c.Set(ctxKeyEmail, claims.Email)
		c.Set(ctxKeyRole, claims.Role)

		c.Next()
	}
}

// rateLimit throttles the endpoint per client IP under the given policy.
// A store failure fails open: losing the limiter must not take down login.
func (h *Handler) rateLimit(p ratelimit.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.limiter.Check(c.Request.Context(), p, clientIP(c))
		if err != nil {
			var limitErr *ratelimit.LimitExceededError
			if errors.As(err, &limitErr) {
				seconds := int(math.Ceil(limitErr.RetryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				c.Header("Retry-After", strconv.Itoa(seconds))
				newErrorResponse(c, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
			h.logger.Error(c.Request.Context(), "rate limiter unavailable", "policy", p.Name, "error", err)
		}
		c.Next()
	}
}

// clientIP returns the originating address: the first X-Forwarded-For entry
// when a proxy is in front, the peer address otherwise.
func clientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return host
}
