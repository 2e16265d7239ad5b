package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docsphere/docsphere/internal/domain/tenant"
	"github.com/docsphere/docsphere/internal/infrastructure/persistence/models"
	"github.com/docsphere/docsphere/internal/shared/db"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

type TenantRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewTenantRepository(db *gorm.DB, logger logger.Interface) tenant.Repository {
	return &TenantRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *TenantRepositoryImpl) Create(ctx context.Context, t *tenant.Tenant) error {
	model := &models.TenantModel{
		ID:           t.ID().String(),
		Name:         t.Name(),
		PlanID:       t.PlanID(),
		PlanMessages: t.PlanMessages(),
		CreatedAt:    t.CreatedAt(),
		UpdatedAt:    t.CreatedAt(),
	}
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create tenant", "error", err, "name", t.Name())
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	r.logger.Infow("tenant created", "tenant_id", t.ID(), "plan_id", t.PlanID())
	return nil
}

func (r *TenantRepositoryImpl) Get(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	var model models.TenantModel
	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id.String()).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get tenant", "error", err, "tenant_id", id)
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant.ReconstructTenant(id, model.Name, model.PlanID, model.PlanMessages, model.CreatedAt), nil
}

// UpdatePlan writes the denormalized plan columns.
func (r *TenantRepositoryImpl) UpdatePlan(ctx context.Context, t *tenant.Tenant) error {
	result := db.GetTxFromContext(ctx, r.db).Model(&models.TenantModel{}).
		Where("id = ?", t.ID().String()).
		Updates(map[string]any{
			"plan_id":       t.PlanID(),
			"plan_messages": t.PlanMessages(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update tenant plan", "error", result.Error, "tenant_id", t.ID())
		return fmt.Errorf("failed to update tenant plan: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return tenant.ErrNotFound
	}
	return nil
}

func (r *TenantRepositoryImpl) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	var raw []string
	if err := db.GetTxFromContext(ctx, r.db).Model(&models.TenantModel{}).Order("created_at ASC").Pluck("id", &raw).Error; err != nil {
		r.logger.Errorw("failed to list tenant ids", "error", err)
		return nil, fmt.Errorf("failed to list tenant ids: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			r.logger.Warnw("skipping malformed tenant id", "id", s, "error", err)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
