package usecases

import (
	"context"

	"github.com/docsphere/docsphere/internal/application/billing/dto"
	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

type ListPlansUseCase struct {
	planRepo subscription.PlanRepository
	logger   logger.Interface
}

func NewListPlansUseCase(planRepo subscription.PlanRepository, logger logger.Interface) *ListPlansUseCase {
	return &ListPlansUseCase{planRepo: planRepo, logger: logger}
}

func (uc *ListPlansUseCase) Execute(ctx context.Context) ([]dto.PlanDTO, error) {
	plans, err := uc.planRepo.List(ctx)
	if err != nil {
		uc.logger.Errorw("failed to list plans", "error", err)
		return nil, err
	}
	return dto.ToPlanDTOs(plans), nil
}
