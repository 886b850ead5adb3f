// Package models holds the persisted entities of the credential store.
package models

import "time"

// DefaultRole is assigned to every newly registered account.
const DefaultRole = "user"

// User is a consumer account. PasswordHash is the only credential material
// ever stored; plaintext passwords never leave the hashing path.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	Active       bool
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
