package auth

import "github.com/avramov/authgate/internal/common"

// Entropy sizes in raw bytes before URL-safe encoding: 256 bits for session
// tokens, 384 bits for single-use action tokens.
const (
	sessionTokenBytes = 32
	actionTokenBytes  = 48
)

// NewSessionToken generates the opaque string for a refresh session.
func NewSessionToken() (string, error) {
	return common.MakeRandString(sessionTokenBytes)
}

// NewActionToken generates the opaque string for a password-reset or
// email-verification token.
func NewActionToken() (string, error) {
	return common.MakeRandString(actionTokenBytes)
}
