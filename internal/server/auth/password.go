// Package auth implements the cryptographic primitives of the service:
// password hashing, the signed access-token codec, and opaque token
// generation for sessions and single-use action tokens.
package auth

import "golang.org/x/crypto/bcrypt"

// bcrypt silently ignores input beyond 72 bytes; truncating explicitly keeps
// hash and verify consistent for over-long passwords.
const maxPasswordBytes = 72

func truncatePassword(plain string) []byte {
	b := []byte(plain)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// HashPassword derives a one-way bcrypt hash of the password. There is no
// recovery path: lost passwords can only be replaced via the reset flow.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncatePassword(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the stored hash. Truncation is
// applied identically to the hashing path.
func CheckPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncatePassword(plain)) == nil
}
