package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/application/billing/dto"
	"github.com/docsphere/docsphere/internal/application/limits"
	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/domain/tenant"
	"github.com/docsphere/docsphere/internal/shared/biztime"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

type SubscribeCommand struct {
	TenantID uuid.UUID
	PlanID   string
	Cycle    string
}

type SubscribeResult struct {
	TenantID     string        `json:"tenant_id"`
	Plan         dto.PlanDTO   `json:"plan"`
	BillingCycle string        `json:"billing_cycle"`
	Period       dto.PeriodDTO `json:"period"`
	Limits       dto.LimitsDTO `json:"limits"`
}

// SubscribeUseCase starts or replaces a tenant's subscription. The new
// period always starts today; usage from the previous period stays in the
// ledger but falls outside the new window.
type SubscribeUseCase struct {
	tenantRepo       tenant.Repository
	planRepo         subscription.PlanRepository
	subscriptionRepo subscription.SubscriptionRepository
	limits           *limits.Service
	txMgr            TransactionManager
	today            func() time.Time
	logger           logger.Interface
}

func NewSubscribeUseCase(
	tenantRepo tenant.Repository,
	planRepo subscription.PlanRepository,
	subscriptionRepo subscription.SubscriptionRepository,
	limitsService *limits.Service,
	txMgr TransactionManager,
	logger logger.Interface,
) *SubscribeUseCase {
	return &SubscribeUseCase{
		tenantRepo:       tenantRepo,
		planRepo:         planRepo,
		subscriptionRepo: subscriptionRepo,
		limits:           limitsService,
		txMgr:            txMgr,
		today:            biztime.Today,
		logger:           logger,
	}
}

func (uc *SubscribeUseCase) Execute(ctx context.Context, cmd SubscribeCommand) (*SubscribeResult, error) {
	cycle, err := subscription.ParseBillingCycle(cmd.Cycle)
	if err != nil {
		return nil, errors.NewValidationError("Invalid billing cycle")
	}
	if cmd.PlanID == "" {
		return nil, errors.NewValidationError("plan_id is required")
	}

	if err := uc.limits.CheckRate(ctx, cmd.TenantID); err != nil {
		return nil, err
	}

	plan, err := uc.planRepo.Get(ctx, cmd.PlanID)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "plan_id", cmd.PlanID, "error", err)
		return nil, err
	}
	if plan == nil {
		return nil, errors.NewNotFoundError("Plan not found")
	}
	if cycle == subscription.BillingCycleAnnual && !plan.IsAnnualAvailable() {
		return nil, errors.NewValidationError("Annual billing is not available for this plan")
	}

	t, err := uc.tenantRepo.Get(ctx, cmd.TenantID)
	if err != nil {
		uc.logger.Errorw("failed to get tenant", "tenant_id", cmd.TenantID, "error", err)
		return nil, err
	}
	if t == nil {
		return nil, errors.NewNotFoundError("Tenant not found")
	}

	sub, err := subscription.NewSubscription(t.ID(), plan.ID(), cycle, uc.today())
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	err = uc.txMgr.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := uc.subscriptionRepo.Upsert(ctx, sub); err != nil {
			return err
		}
		t.ApplyPlan(plan.ID(), plan.MonthlyMessageCap())
		return uc.tenantRepo.UpdatePlan(ctx, t)
	})
	if err != nil {
		uc.logger.Errorw("failed to save subscription", "tenant_id", t.ID(), "plan_id", plan.ID(), "error", err)
		return nil, err
	}

	uc.logger.Infow("tenant subscribed",
		"tenant_id", t.ID(),
		"plan_id", plan.ID(),
		"cycle", cycle,
		"period", sub.CurrentPeriod().String(),
	)

	return &SubscribeResult{
		TenantID:     t.ID().String(),
		Plan:         dto.ToPlanDTO(plan),
		BillingCycle: cycle.String(),
		Period:       dto.ToPeriodDTO(sub.CurrentPeriod()),
		Limits:       dto.ToLimitsDTO(plan),
	}, nil
}
