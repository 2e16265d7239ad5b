package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/infrastructure/persistence/models"
	"github.com/docsphere/docsphere/internal/shared/db"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

type PlanRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewPlanRepository(db *gorm.DB, logger logger.Interface) subscription.PlanRepository {
	return &PlanRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *PlanRepositoryImpl) Get(ctx context.Context, id string) (*subscription.Plan, error) {
	var model models.PlanModel
	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get plan", "error", err, "plan_id", id)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return r.toEntity(&model)
}

func (r *PlanRepositoryImpl) List(ctx context.Context) ([]*subscription.Plan, error) {
	var planModels []*models.PlanModel
	if err := db.GetTxFromContext(ctx, r.db).Order("max_projects ASC, id ASC").Find(&planModels).Error; err != nil {
		r.logger.Errorw("failed to list plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	plans := make([]*subscription.Plan, 0, len(planModels))
	for _, m := range planModels {
		p, err := r.toEntity(m)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// Upsert inserts the plan or overwrites its caps. Used by seeding.
func (r *PlanRepositoryImpl) Upsert(ctx context.Context, plan *subscription.Plan) error {
	model := r.toModel(plan)
	err := db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name",
			"max_projects",
			"monthly_message_cap",
			"monthly_upload_char_cap",
			"is_annual_available",
		}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to upsert plan", "error", err, "plan_id", plan.ID())
		return fmt.Errorf("failed to upsert plan: %w", err)
	}
	return nil
}

func (r *PlanRepositoryImpl) toEntity(m *models.PlanModel) (*subscription.Plan, error) {
	p, err := subscription.NewPlan(m.ID, m.Name, m.MaxProjects, m.MonthlyMessageCap, m.MonthlyUploadCharCap, m.IsAnnualAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct plan %q: %w", m.ID, err)
	}
	return p, nil
}

func (r *PlanRepositoryImpl) toModel(p *subscription.Plan) *models.PlanModel {
	return &models.PlanModel{
		ID:                   p.ID(),
		Name:                 p.Name(),
		MaxProjects:          p.MaxProjects(),
		MonthlyMessageCap:    p.MonthlyMessageCap(),
		MonthlyUploadCharCap: p.MonthlyUploadCharCap(),
		IsAnnualAvailable:    p.IsAnnualAvailable(),
	}
}
