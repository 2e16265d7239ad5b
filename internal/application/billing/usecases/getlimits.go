package usecases

import (
	"context"

	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/application/billing/dto"
	"github.com/docsphere/docsphere/internal/application/limits"
	"github.com/docsphere/docsphere/internal/domain/project"
	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/domain/usage"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

type GetLimitsResult struct {
	Subscribed   bool           `json:"subscribed"`
	Plan         *dto.PlanDTO   `json:"plan,omitempty"`
	BillingCycle string         `json:"billing_cycle,omitempty"`
	Period       *dto.PeriodDTO `json:"period,omitempty"`
	Limits       *dto.LimitsDTO `json:"limits,omitempty"`
	Usage        *dto.UsageDTO  `json:"usage,omitempty"`
}

// GetLimitsUseCase reports the tenant's plan limits next to current-period
// usage. Each call counts against the tenant's rate limit.
type GetLimitsUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	projectRepo      project.Repository
	ledger           usage.Ledger
	limits           *limits.Service
	logger           logger.Interface
}

func NewGetLimitsUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	projectRepo project.Repository,
	ledger usage.Ledger,
	limitsService *limits.Service,
	logger logger.Interface,
) *GetLimitsUseCase {
	return &GetLimitsUseCase{
		subscriptionRepo: subscriptionRepo,
		projectRepo:      projectRepo,
		ledger:           ledger,
		limits:           limitsService,
		logger:           logger,
	}
}

func (uc *GetLimitsUseCase) Execute(ctx context.Context, tenantID uuid.UUID) (*GetLimitsResult, error) {
	if err := uc.limits.CheckRate(ctx, tenantID); err != nil {
		return nil, err
	}

	sub, err := uc.subscriptionRepo.Get(ctx, tenantID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "tenant_id", tenantID, "error", err)
		return nil, err
	}
	if sub == nil {
		return &GetLimitsResult{Subscribed: false}, nil
	}

	plan, err := uc.limits.RequirePlan(ctx, sub)
	if err != nil {
		return nil, err
	}

	period := sub.CurrentPeriod()
	projects, err := uc.projectRepo.CountForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	messages, err := uc.ledger.MessagesInPeriod(ctx, tenantID, period)
	if err != nil {
		return nil, err
	}
	chars, err := uc.ledger.CharsUploadedInPeriod(ctx, tenantID, period)
	if err != nil {
		return nil, err
	}

	planDTO := dto.ToPlanDTO(plan)
	periodDTO := dto.ToPeriodDTO(period)
	limitsDTO := dto.ToLimitsDTO(plan)
	return &GetLimitsResult{
		Subscribed:   true,
		Plan:         &planDTO,
		BillingCycle: sub.Cycle().String(),
		Period:       &periodDTO,
		Limits:       &limitsDTO,
		Usage: &dto.UsageDTO{
			Projects:      projects,
			MessagesUsed:  messages,
			CharsUploaded: chars,
		},
	}, nil
}
