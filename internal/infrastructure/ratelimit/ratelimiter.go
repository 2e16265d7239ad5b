// Package ratelimit throttles per-tenant request rates with a Redis-backed
// fixed one-minute window.
package ratelimit

import (
	"context"
	"time"
)

// Window is the length of one counting window.
const Window = time.Minute

// Result describes one admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAfter is the time until the current window resets.
	RetryAfter time.Duration
}

type RateLimiter interface {
	// Allow counts one request for tenantID against the per-minute limit.
	Allow(ctx context.Context, tenantID string) (Result, error)
	Reset(ctx context.Context, tenantID string) error
}
