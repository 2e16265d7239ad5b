// Package usecases implements tenant bootstrap.
package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/application/billing/dto"
	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/domain/tenant"
	"github.com/docsphere/docsphere/internal/shared/biztime"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

const (
	defaultPlanID = "hobby"
	defaultCycle  = "monthly"
)

type TransactionManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TokenIssuer mints a bearer token for a new tenant.
type TokenIssuer interface {
	Issue(tenantID uuid.UUID) (string, time.Time, error)
}

type CreateTenantCommand struct {
	Name         string
	PlanID       string
	BillingCycle string
}

type CreateTenantResult struct {
	TenantID     string        `json:"tenant_id"`
	Name         string        `json:"name"`
	Plan         dto.PlanDTO   `json:"plan"`
	BillingCycle string        `json:"billing_cycle"`
	Period       dto.PeriodDTO `json:"period"`
	Limits       dto.LimitsDTO `json:"limits"`
	AccessToken  string        `json:"access_token,omitempty"`
	ExpiresAt    *time.Time    `json:"expires_at,omitempty"`
}

type CreateTenantUseCase struct {
	tenantRepo       tenant.Repository
	planRepo         subscription.PlanRepository
	subscriptionRepo subscription.SubscriptionRepository
	txMgr            TransactionManager
	tokens           TokenIssuer
	today            func() time.Time
	logger           logger.Interface
}

// NewCreateTenantUseCase builds the use case. tokens may be nil, in which
// case no access token is returned.
func NewCreateTenantUseCase(
	tenantRepo tenant.Repository,
	planRepo subscription.PlanRepository,
	subscriptionRepo subscription.SubscriptionRepository,
	txMgr TransactionManager,
	tokens TokenIssuer,
	logger logger.Interface,
) *CreateTenantUseCase {
	return &CreateTenantUseCase{
		tenantRepo:       tenantRepo,
		planRepo:         planRepo,
		subscriptionRepo: subscriptionRepo,
		txMgr:            txMgr,
		tokens:           tokens,
		today:            biztime.Today,
		logger:           logger,
	}
}

func (uc *CreateTenantUseCase) Execute(ctx context.Context, cmd CreateTenantCommand) (*CreateTenantResult, error) {
	if cmd.PlanID == "" {
		cmd.PlanID = defaultPlanID
	}
	if cmd.BillingCycle == "" {
		cmd.BillingCycle = defaultCycle
	}

	cycle, err := subscription.ParseBillingCycle(cmd.BillingCycle)
	if err != nil {
		return nil, errors.NewValidationError("Invalid billing cycle")
	}

	plan, err := uc.planRepo.Get(ctx, cmd.PlanID)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "plan_id", cmd.PlanID, "error", err)
		return nil, err
	}
	if plan == nil {
		return nil, errors.NewNotFoundError("Plan not found")
	}

	t, err := tenant.NewTenant(cmd.Name, plan.ID(), plan.MonthlyMessageCap())
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	sub, err := subscription.NewSubscription(t.ID(), plan.ID(), cycle, uc.today())
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	err = uc.txMgr.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := uc.tenantRepo.Create(ctx, t); err != nil {
			return err
		}
		return uc.subscriptionRepo.Upsert(ctx, sub)
	})
	if err != nil {
		uc.logger.Errorw("failed to create tenant", "name", t.Name(), "error", err)
		return nil, err
	}

	result := &CreateTenantResult{
		TenantID:     t.ID().String(),
		Name:         t.Name(),
		Plan:         dto.ToPlanDTO(plan),
		BillingCycle: cycle.String(),
		Period:       dto.ToPeriodDTO(sub.CurrentPeriod()),
		Limits:       dto.ToLimitsDTO(plan),
	}

	if uc.tokens != nil {
		token, exp, err := uc.tokens.Issue(t.ID())
		if err != nil {
			uc.logger.Errorw("failed to issue tenant token", "tenant_id", t.ID(), "error", err)
			return nil, err
		}
		result.AccessToken = token
		result.ExpiresAt = &exp
	}

	uc.logger.Infow("tenant created", "tenant_id", t.ID(), "plan_id", plan.ID(), "cycle", cycle)
	return result, nil
}
