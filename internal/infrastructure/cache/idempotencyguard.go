package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idemp:"
	// DefaultIdempotencyTTL is how long a claimed key suppresses duplicates.
	DefaultIdempotencyTTL = 30 * time.Minute
)

// IdempotencyGuard suppresses repeated processing of requests that carry the
// same caller-supplied key. It never stores or replays responses.
type IdempotencyGuard struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewIdempotencyGuard(client redis.Cmdable, ttl time.Duration) *IdempotencyGuard {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyGuard{client: client, ttl: ttl}
}

// Format: idemp:{tenant}:{key}
func (g *IdempotencyGuard) buildKey(tenantID, key string) string {
	return fmt.Sprintf("%s%s:%s", idempotencyKeyPrefix, tenantID, key)
}

// Claim atomically reserves (tenantID, key). It returns false when the key
// was already claimed inside the TTL. An empty key always succeeds without
// touching Redis.
func (g *IdempotencyGuard) Claim(ctx context.Context, tenantID, key string) (bool, error) {
	if key == "" {
		return true, nil
	}

	acquired, err := g.client.SetNX(ctx, g.buildKey(tenantID, key), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return acquired, nil
}

// Remaining returns how long the claim on key still holds, or 0.
func (g *IdempotencyGuard) Remaining(ctx context.Context, tenantID, key string) (time.Duration, error) {
	ttl, err := g.client.TTL(ctx, g.buildKey(tenantID, key)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read idempotency ttl: %w", err)
	}
	// TTL returns -2 if key doesn't exist, -1 if no TTL set
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
