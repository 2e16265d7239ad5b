// Package usecases implements project management and document ingestion.
package usecases

import (
	"context"

	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/domain/project"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

const (
	msgProjectNotFound         = "Project not found"
	msgVectorStoreMissing      = "Vector store missing"
	msgVectorStoreMissingForUp = "Vector store missing. Call ensure_vector_store first."
)

// ProjectRef addresses one project of one tenant on behalf of an actor.
type ProjectRef struct {
	ActorTenantID uuid.UUID
	TenantID      uuid.UUID
	ProjectID     uuid.UUID
}

// ProjectDTO is the public view of a project.
type ProjectDTO struct {
	ID            string `json:"id"`
	TenantID      string `json:"tenant_id"`
	Name          string `json:"name"`
	VectorStoreID string `json:"vector_store_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toProjectDTO(p *project.Project) ProjectDTO {
	return ProjectDTO{
		ID:            p.ID().String(),
		TenantID:      p.TenantID().String(),
		Name:          p.Name(),
		VectorStoreID: p.VectorStoreID(),
		CreatedAt:     p.CreatedAt().UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// loadOwnedProject returns the project only when it belongs to tenantID.
// Projects of other tenants are reported as not found.
func loadOwnedProject(ctx context.Context, repo project.Repository, log logger.Interface, tenantID, projectID uuid.UUID) (*project.Project, error) {
	p, err := repo.GetByID(ctx, projectID)
	if err != nil {
		log.Errorw("failed to get project", "project_id", projectID, "error", err)
		return nil, err
	}
	if p == nil || !p.OwnedBy(tenantID) {
		return nil, errors.NewNotFoundError(msgProjectNotFound)
	}
	return p, nil
}
