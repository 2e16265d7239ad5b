package cache

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

const (
	planKeyPrefix = "plan:"
	planTTLJitter = 2 * time.Minute
	// Short TTL for not-found markers (anti-penetration)
	planNullMarkerTTL = time.Minute

	fieldName          = "name"
	fieldMaxProjects   = "max_projects"
	fieldMessageCap    = "monthly_message_cap"
	fieldUploadCharCap = "monthly_upload_char_cap"
	fieldAnnual        = "is_annual_available"
	fieldNullMarker    = "_null"
)

// CachedPlanRepository fronts a PlanRepository with a Redis hash per plan.
// Cache failures fall through to the underlying repository.
type CachedPlanRepository struct {
	next    subscription.PlanRepository
	client  redis.Cmdable
	baseTTL time.Duration
	logger  logger.Interface
}

func NewCachedPlanRepository(next subscription.PlanRepository, client redis.Cmdable, ttl time.Duration, logger logger.Interface) *CachedPlanRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedPlanRepository{
		next:    next,
		client:  client,
		baseTTL: ttl,
		logger:  logger,
	}
}

// PlanKey is the cache key for a plan id.
func PlanKey(id string) string {
	return planKeyPrefix + id
}

func (c *CachedPlanRepository) Get(ctx context.Context, id string) (*subscription.Plan, error) {
	plan, hit, err := c.read(ctx, id)
	if err != nil {
		c.logger.Warnw("plan cache read failed", "error", err, "plan_id", id)
	} else if hit {
		return plan, nil
	}

	plan, err = c.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if plan == nil {
		if err := c.setNullMarker(ctx, id); err != nil {
			c.logger.Warnw("failed to cache plan null marker", "error", err, "plan_id", id)
		}
		return nil, nil
	}
	if err := c.write(ctx, plan); err != nil {
		c.logger.Warnw("failed to cache plan", "error", err, "plan_id", id)
	}
	return plan, nil
}

func (c *CachedPlanRepository) List(ctx context.Context) ([]*subscription.Plan, error) {
	return c.next.List(ctx)
}

// Upsert writes through and drops the cached entry.
func (c *CachedPlanRepository) Upsert(ctx context.Context, plan *subscription.Plan) error {
	if err := c.next.Upsert(ctx, plan); err != nil {
		return err
	}
	return c.Invalidate(ctx, plan.ID())
}

func (c *CachedPlanRepository) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, PlanKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate plan cache: %w", err)
	}
	return nil
}

// read reports hit=true for both a cached plan and a cached null marker.
func (c *CachedPlanRepository) read(ctx context.Context, id string) (*subscription.Plan, bool, error) {
	result, err := c.client.HGetAll(ctx, PlanKey(id)).Result()
	if err != nil {
		return nil, false, err
	}
	if len(result) == 0 {
		return nil, false, nil
	}
	if result[fieldNullMarker] == "1" {
		return nil, true, nil
	}

	maxProjects, _ := strconv.ParseInt(result[fieldMaxProjects], 10, 64)
	messageCap, _ := strconv.ParseInt(result[fieldMessageCap], 10, 64)
	uploadCap, _ := strconv.ParseInt(result[fieldUploadCharCap], 10, 64)

	plan, err := subscription.NewPlan(id, result[fieldName], maxProjects, messageCap, uploadCap, result[fieldAnnual] == "1")
	if err != nil {
		return nil, false, fmt.Errorf("corrupt cached plan: %w", err)
	}
	return plan, true, nil
}

func (c *CachedPlanRepository) write(ctx context.Context, plan *subscription.Plan) error {
	key := PlanKey(plan.ID())
	annual := 0
	if plan.IsAnnualAvailable() {
		annual = 1
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		fieldName:          plan.Name(),
		fieldMaxProjects:   plan.MaxProjects(),
		fieldMessageCap:    plan.MonthlyMessageCap(),
		fieldUploadCharCap: plan.MonthlyUploadCharCap(),
		fieldAnnual:        annual,
	})
	pipe.Expire(ctx, key, c.ttlWithJitter())
	_, err := pipe.Exec(ctx)
	return err
}

func (c *CachedPlanRepository) setNullMarker(ctx context.Context, id string) error {
	key := PlanKey(id)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, fieldNullMarker, "1")
	pipe.Expire(ctx, key, planNullMarkerTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// ttlWithJitter spreads expiries over [base, base+jitter) to avoid stampedes.
func (c *CachedPlanRepository) ttlWithJitter() time.Duration {
	return c.baseTTL + time.Duration(rand.Int64N(int64(planTTLJitter)))
}
