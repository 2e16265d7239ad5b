package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/docsphere/docsphere/internal/domain/project"
	"github.com/docsphere/docsphere/internal/infrastructure/persistence/models"
	"github.com/docsphere/docsphere/internal/shared/db"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

type ProjectRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewProjectRepository(db *gorm.DB, logger logger.Interface) project.Repository {
	return &ProjectRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create inserts the project. A duplicate (tenant, name) surfaces the
// driver's unique constraint error for the caller to classify.
func (r *ProjectRepositoryImpl) Create(ctx context.Context, p *project.Project) error {
	model := r.toModel(p)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create project", "error", err, "tenant_id", p.TenantID(), "name", p.Name())
		return fmt.Errorf("failed to create project: %w", err)
	}

	r.logger.Infow("project created", "project_id", p.ID(), "tenant_id", p.TenantID())
	return nil
}

func (r *ProjectRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	var model models.ProjectModel
	if err := db.GetTxFromContext(ctx, r.db).Where("id = ?", id.String()).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get project", "error", err, "project_id", id)
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return r.toEntity(&model)
}

func (r *ProjectRepositoryImpl) GetByTenantAndName(ctx context.Context, tenantID uuid.UUID, name string) (*project.Project, error) {
	var model models.ProjectModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("tenant_id = ? AND name = ?", tenantID.String(), name).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get project by name", "error", err, "tenant_id", tenantID)
		return nil, fmt.Errorf("failed to get project by name: %w", err)
	}
	return r.toEntity(&model)
}

// SetVectorStoreID persists the store only if none is recorded yet, so a
// concurrent ensure cannot overwrite an existing binding.
func (r *ProjectRepositoryImpl) SetVectorStoreID(ctx context.Context, p *project.Project) error {
	result := db.GetTxFromContext(ctx, r.db).Model(&models.ProjectModel{}).
		Where("id = ? AND vector_store_id IS NULL", p.ID().String()).
		Update("vector_store_id", p.VectorStoreID())
	if result.Error != nil {
		r.logger.Errorw("failed to set vector store", "error", result.Error, "project_id", p.ID())
		return fmt.Errorf("failed to set vector store: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return project.ErrVectorStoreAssigned
	}
	return nil
}

func (r *ProjectRepositoryImpl) CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := db.GetTxFromContext(ctx, r.db).Model(&models.ProjectModel{}).
		Where("tenant_id = ?", tenantID.String()).
		Count(&count).Error
	if err != nil {
		r.logger.Errorw("failed to count projects", "error", err, "tenant_id", tenantID)
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return count, nil
}

func (r *ProjectRepositoryImpl) toEntity(m *models.ProjectModel) (*project.Project, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid project id %q: %w", m.ID, err)
	}
	tenantID, err := uuid.Parse(m.TenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant id %q on project %s: %w", m.TenantID, m.ID, err)
	}
	var storeID string
	if m.VectorStoreID != nil {
		storeID = *m.VectorStoreID
	}
	return project.ReconstructProject(id, tenantID, m.Name, storeID, m.CreatedAt), nil
}

func (r *ProjectRepositoryImpl) toModel(p *project.Project) *models.ProjectModel {
	m := &models.ProjectModel{
		ID:        p.ID().String(),
		TenantID:  p.TenantID().String(),
		Name:      p.Name(),
		CreatedAt: p.CreatedAt(),
	}
	if p.HasVectorStore() {
		s := p.VectorStoreID()
		m.VectorStoreID = &s
	}
	return m
}
