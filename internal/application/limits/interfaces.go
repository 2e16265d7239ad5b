package limits

import (
	"context"

	"github.com/docsphere/docsphere/internal/infrastructure/ratelimit"
)

// RateLimiter admits or rejects one request for a tenant.
type RateLimiter interface {
	Allow(ctx context.Context, tenantID string) (ratelimit.Result, error)
}

// IdempotencyGuard claims a caller-supplied key for a tenant. An empty key
// is always granted.
type IdempotencyGuard interface {
	Claim(ctx context.Context, tenantID, key string) (bool, error)
}

// DecisionRecorder receives every gate outcome. *metrics.Metrics satisfies
// it.
type DecisionRecorder interface {
	ObserveQuotaDecision(gate, outcome string)
	IncRateLimitDenied()
	IncDuplicateRequest()
}

type nopRecorder struct{}

func (nopRecorder) ObserveQuotaDecision(string, string) {}
func (nopRecorder) IncRateLimitDenied()                 {}
func (nopRecorder) IncDuplicateRequest()                {}
