// Package ratelimit throttles abuse-prone authentication endpoints with
// fixed-window counters. Counters live in an injected Store so a single
// instance can run in-process while multi-instance deployments share state
// through Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Policy caps attempts per key within a fixed window.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Per-endpoint budgets.
var (
	PolicyLogin              = Policy{Name: "login", Limit: 5, Window: 5 * time.Minute}
	PolicyForgotPassword     = Policy{Name: "forgot_password", Limit: 3, Window: 15 * time.Minute}
	PolicyResetPassword      = Policy{Name: "reset_password", Limit: 5, Window: 15 * time.Minute}
	PolicyResendVerification = Policy{Name: "resend_verification", Limit: 3, Window: 15 * time.Minute}
)

// LimitExceededError reports a denied attempt and how long until the
// window reopens.
type LimitExceededError struct {
	Policy     string
	RetryAfter time.Duration
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry after %s", e.Policy, e.RetryAfter)
}

// Store counts attempts per key within a fixed window.
type Store interface {
	// Incr increments the counter for key, starting a window of the given
	// length on the first hit, and returns the new count plus the time
	// until the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter applies policies to attempt keys.
type Limiter struct {
	store Store
}

// NewLimiter constructs a Limiter over the given store.
func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store}
}

// Check records one attempt under the policy for the key. A denied attempt
// yields *LimitExceededError; any other error is a store failure and the
// caller decides whether to fail open.
func (l *Limiter) Check(ctx context.Context, p Policy, key string) error {
	count, retryAfter, err := l.store.Incr(ctx, p.Name+":"+key, p.Window)
	if err != nil {
		return fmt.Errorf("rate limit store: %w", err)
	}
	if count > int64(p.Limit) {
		return &LimitExceededError{Policy: p.Name, RetryAfter: retryAfter}
	}
	return nil
}
