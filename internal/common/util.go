package common

import (
	"crypto/rand"
	"encoding/base64"
)

// MakeRandString generates an opaque URL-safe token from size random bytes.
// The result is base64 without padding, so its length is ceil(size*4/3).
// Tokens produced here carry no structure; they are pure lookup keys.
//
// It returns an error if the random number generator fails.
func MakeRandString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
