package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avramov/authgate/internal/common"
	"github.com/avramov/authgate/internal/server/models"
)

// TokenKindAccess tags access tokens so other signed artifacts can never be
// presented in their place.
const TokenKindAccess = "access"

// Claims is the access-token claim set: subject (user id), email, role and
// the token kind, plus the registered expiry.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
	Kind  string `json:"kind"`
}

// GenerateAccessToken mints a signed HS256 access token for the user.
// Access tokens are stateless: they are never persisted and cannot be
// revoked individually; their short validity bounds exposure.
func GenerateAccessToken(user *models.User, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Email: user.Email,
		Role:  user.Role,
		Kind:  TokenKindAccess,
	})

	return token.SignedString(secretKey)
}

// ParseAccessToken verifies signature, expiry and token kind. It fails
// closed: every problem collapses into common.ErrorInvalidToken so callers
// map it to a single authentication failure.
func ParseAccessToken(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, common.ErrorInvalidToken
	}

	if claims.Kind != TokenKindAccess || claims.Subject == "" {
		return nil, common.ErrorInvalidToken
	}

	return claims, nil
}
