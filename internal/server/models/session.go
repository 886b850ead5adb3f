package models

import "time"

// Session is a persisted refresh token. The token string is opaque: a random
// 256-bit value with no structure, usable only as a lookup key. An account
// may hold many concurrent sessions (multi-device).
type Session struct {
	ID         string
	UserID     string
	Token      string
	ExpiresAt  time.Time
	Revoked    bool
	DeviceInfo string
	IPAddress  string
	CreatedAt  time.Time
}

// Valid reports whether the session can still be exchanged for access tokens.
func (s *Session) Valid(now time.Time) bool {
	return !s.Revoked && now.Before(s.ExpiresAt)
}
