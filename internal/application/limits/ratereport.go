package limits

import (
	"context"

	"github.com/docsphere/docsphere/internal/infrastructure/ratelimit"
)

// RateReporter is told the outcome of every rate-limit check made while
// serving a request, before any response is written.
type RateReporter func(ratelimit.Result)

type rateReporterKey struct{}

func WithRateReporter(ctx context.Context, fn RateReporter) context.Context {
	return context.WithValue(ctx, rateReporterKey{}, fn)
}

func reportRate(ctx context.Context, r ratelimit.Result) {
	if fn, ok := ctx.Value(rateReporterKey{}).(RateReporter); ok && fn != nil {
		fn(r)
	}
}
