// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Account state errors.
	ErrorAccountInactive = errors.New("account inactive")
	ErrorAlreadyVerified = errors.New("already verified")

	// Token lifecycle errors. Absent, expired and consumed tokens all map to
	// ErrorInvalidToken so callers cannot probe which case they hit.
	ErrorInvalidToken = errors.New("invalid token")
)
