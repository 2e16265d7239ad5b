// Package limits applies the shared request gates: per-tenant rate limiting,
// idempotency claims, subscription resolution and quota decisions.
package limits

import (
	"context"

	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/domain/quota"
	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

// Gate names label quota decisions in logs and metrics.
const (
	GateRate         = "rate"
	GateIdempotency  = "idempotency"
	GateSubscription = "subscription"
	GateProject      = "project"
	GateUpload       = "upload"
	GateMessage      = "message"
)

type Service struct {
	limiter          RateLimiter
	guard            IdempotencyGuard
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	recorder         DecisionRecorder
	logger           logger.Interface
}

func NewService(
	limiter RateLimiter,
	guard IdempotencyGuard,
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	recorder DecisionRecorder,
	logger logger.Interface,
) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		limiter:          limiter,
		guard:            guard,
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		recorder:         recorder,
		logger:           logger,
	}
}

// CheckRate counts one request against the tenant's per-minute budget.
func (s *Service) CheckRate(ctx context.Context, tenantID uuid.UUID) error {
	res, err := s.limiter.Allow(ctx, tenantID.String())
	if err != nil {
		s.logger.Errorw("rate limiter failed", "tenant_id", tenantID, "error", err)
		return errors.NewInternalError("rate limiter unavailable")
	}
	reportRate(ctx, res)

	if !res.Allowed {
		s.recorder.IncRateLimitDenied()
		s.recorder.ObserveQuotaDecision(GateRate, quota.OutcomeRateLimitExceeded.String())
		s.logger.Warnw("rate limit exceeded", "tenant_id", tenantID, "limit", res.Limit)
		return quota.OutcomeRateLimitExceeded.Error()
	}
	return nil
}

// ClaimIdempotency rejects a key already used by the tenant inside the
// claim window. Claims are never released, so a failed request cannot be
// retried with the same key.
func (s *Service) ClaimIdempotency(ctx context.Context, tenantID uuid.UUID, key string) error {
	ok, err := s.guard.Claim(ctx, tenantID.String(), key)
	if err != nil {
		s.logger.Errorw("idempotency guard failed", "tenant_id", tenantID, "error", err)
		return errors.NewInternalError("idempotency guard unavailable")
	}
	if !ok {
		s.recorder.IncDuplicateRequest()
		s.recorder.ObserveQuotaDecision(GateIdempotency, quota.OutcomeDuplicateRequest.String())
		s.logger.Warnw("duplicate request rejected", "tenant_id", tenantID, "idempotency_key", key)
		return quota.OutcomeDuplicateRequest.Error()
	}
	return nil
}

// RequireSubscription returns the tenant's subscription, or a
// no_active_subscription error.
func (s *Service) RequireSubscription(ctx context.Context, tenantID uuid.UUID) (*subscription.Subscription, error) {
	sub, err := s.subscriptionRepo.Get(ctx, tenantID)
	if err != nil {
		s.logger.Errorw("failed to get subscription", "tenant_id", tenantID, "error", err)
		return nil, errors.NewInternalError("failed to load subscription")
	}
	if sub == nil {
		s.recorder.ObserveQuotaDecision(GateSubscription, quota.OutcomeNoActiveSubscription.String())
		return nil, quota.OutcomeNoActiveSubscription.Error()
	}
	return sub, nil
}

// RequirePlan loads the plan a subscription points at. A dangling plan id
// is a data-integrity failure, never an unlimited plan.
func (s *Service) RequirePlan(ctx context.Context, sub *subscription.Subscription) (*subscription.Plan, error) {
	plan, err := s.planRepo.Get(ctx, sub.PlanID())
	if err != nil {
		s.logger.Errorw("failed to get plan", "plan_id", sub.PlanID(), "error", err)
		return nil, errors.NewInternalError("failed to load plan")
	}
	if plan == nil {
		s.recorder.ObserveQuotaDecision(GateSubscription, quota.OutcomePlanDataMissing.String())
		s.logger.Errorw("subscription references missing plan",
			"tenant_id", sub.TenantID(),
			"plan_id", sub.PlanID(),
		)
		return nil, quota.OutcomePlanDataMissing.Error()
	}
	return plan, nil
}

// Enforce records the decision and returns its error when denied.
func (s *Service) Enforce(tenantID uuid.UUID, gate string, d quota.Decision) error {
	s.recorder.ObserveQuotaDecision(gate, d.Outcome.String())
	if d.Allowed() {
		return nil
	}

	s.logger.Infow("quota denied",
		"tenant_id", tenantID,
		"gate", gate,
		"outcome", d.Outcome,
		"used", d.Used,
		"requested", d.Requested,
		"limit", d.Limit,
	)
	return d.Err()
}
