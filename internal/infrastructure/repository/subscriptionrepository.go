package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/infrastructure/persistence/models"
	"github.com/docsphere/docsphere/internal/shared/db"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewSubscriptionRepository(db *gorm.DB, logger logger.Interface) subscription.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Get(ctx context.Context, tenantID uuid.UUID) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	err := db.GetTxFromContext(ctx, r.db).Where("tenant_id = ?", tenantID.String()).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription", "error", err, "tenant_id", tenantID)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return r.toEntity(&model)
}

// Upsert replaces the tenant's subscription row. A tenant holds at most one.
func (r *SubscriptionRepositoryImpl) Upsert(ctx context.Context, sub *subscription.Subscription) error {
	model := r.toModel(sub)
	err := db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tenant_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_id",
			"billing_cycle",
			"current_period_start",
			"current_period_end",
			"updated_at",
		}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to upsert subscription", "error", err, "tenant_id", sub.TenantID())
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	r.logger.Infow("subscription upserted",
		"tenant_id", sub.TenantID(),
		"plan_id", sub.PlanID(),
		"period", sub.CurrentPeriod().String(),
	)
	return nil
}

func (r *SubscriptionRepositoryImpl) toEntity(m *models.SubscriptionModel) (*subscription.Subscription, error) {
	tenantID, err := uuid.Parse(m.TenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant id %q in subscriptions: %w", m.TenantID, err)
	}
	return subscription.ReconstructSubscription(
		tenantID,
		m.PlanID,
		subscription.BillingCycle(m.BillingCycle),
		m.CurrentPeriodStart,
		m.CurrentPeriodEnd,
		m.UpdatedAt,
	)
}

func (r *SubscriptionRepositoryImpl) toModel(s *subscription.Subscription) *models.SubscriptionModel {
	period := s.CurrentPeriod()
	return &models.SubscriptionModel{
		TenantID:           s.TenantID().String(),
		PlanID:             s.PlanID(),
		BillingCycle:       s.Cycle().String(),
		CurrentPeriodStart: period.Start,
		CurrentPeriodEnd:   period.End,
		UpdatedAt:          s.UpdatedAt(),
	}
}
