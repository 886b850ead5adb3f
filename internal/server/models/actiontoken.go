package models

import "time"

// ActionTokenPurpose selects which single-use flow a token authorizes.
type ActionTokenPurpose string

const (
	PurposePasswordReset     ActionTokenPurpose = "password_reset"
	PurposeEmailVerification ActionTokenPurpose = "email_verification"
)

// ActionToken is a single-use opaque token authorizing one account state
// change. Password-reset and email-verification tokens share this shape and
// live in one table, distinguished by Purpose.
//
// Invariant: at most one valid (unused, unexpired) token exists per
// (user, purpose); issuing a new one marks all prior unused tokens used.
type ActionToken struct {
	ID        string
	UserID    string
	Token     string
	Purpose   ActionTokenPurpose
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
	IPAddress string
	CreatedAt time.Time
}

// Expired reports whether the token's lifetime has elapsed.
func (t *ActionToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Valid reports whether the token can still be redeemed.
func (t *ActionToken) Valid(now time.Time) bool {
	return !t.Used && !t.Expired(now)
}
