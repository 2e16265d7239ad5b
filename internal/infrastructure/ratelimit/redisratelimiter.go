package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/docsphere/docsphere/internal/shared/logger"
)

const keyPrefix = "rl"

// RedisRateLimiter counts requests in a key named after the current minute.
// The first increment in a window sets the key to expire after the window,
// so stale windows clean themselves up.
type RedisRateLimiter struct {
	client   redis.Cmdable
	limit    int
	failOpen bool
	now      func() time.Time
	logger   logger.Interface
}

type Option func(*RedisRateLimiter)

// WithClock overrides the time source used to pick the window.
func WithClock(now func() time.Time) Option {
	return func(l *RedisRateLimiter) { l.now = now }
}

// NewRedisRateLimiter admits up to rpm requests per tenant per minute. When
// failOpen is set, a Redis failure admits the request instead of erroring.
func NewRedisRateLimiter(client redis.Cmdable, rpm int, failOpen bool, log logger.Interface, opts ...Option) *RedisRateLimiter {
	l := &RedisRateLimiter{
		client:   client,
		limit:    rpm,
		failOpen: failOpen,
		now:      time.Now,
		logger:   log,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RedisRateLimiter) Allow(ctx context.Context, tenantID string) (Result, error) {
	now := l.now()
	window := now.Unix() / int64(Window.Seconds())
	key := windowKey(tenantID, window)
	retryAfter := time.Unix((window+1)*int64(Window.Seconds()), 0).Sub(now)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return l.onError(tenantID, retryAfter, fmt.Errorf("failed to increment rate counter: %w", err))
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, Window).Err(); err != nil {
			l.logger.Warnw("failed to set rate window expiry", "error", err, "key", key)
		}
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:    count <= int64(l.limit),
		Limit:      l.limit,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}, nil
}

func (l *RedisRateLimiter) onError(tenantID string, retryAfter time.Duration, err error) (Result, error) {
	if !l.failOpen {
		return Result{}, err
	}
	l.logger.Warnw("rate limiter unavailable, admitting request", "error", err, "tenant_id", tenantID)
	return Result{
		Allowed:    true,
		Limit:      l.limit,
		Remaining:  l.limit,
		RetryAfter: retryAfter,
	}, nil
}

// Reset clears the tenant's current window.
func (l *RedisRateLimiter) Reset(ctx context.Context, tenantID string) error {
	window := l.now().Unix() / int64(Window.Seconds())
	if err := l.client.Del(ctx, windowKey(tenantID, window)).Err(); err != nil {
		return fmt.Errorf("failed to reset rate window: %w", err)
	}
	return nil
}

func windowKey(tenantID string, window int64) string {
	return fmt.Sprintf("%s:%s:%d", keyPrefix, tenantID, window)
}
