package usecases

import (
	"context"
	stderrors "errors"

	"github.com/docsphere/docsphere/internal/application/limits"
	"github.com/docsphere/docsphere/internal/domain/project"
	"github.com/docsphere/docsphere/internal/domain/retrieval"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

type EnsureVectorStoreResult struct {
	Status        string `json:"status"`
	VectorStoreID string `json:"vector_store_id"`
}

type EnsureVectorStoreUseCase struct {
	projectRepo project.Repository
	provider    retrieval.Provider
	limits      *limits.Service
	logger      logger.Interface
}

func NewEnsureVectorStoreUseCase(
	projectRepo project.Repository,
	provider retrieval.Provider,
	limitsService *limits.Service,
	logger logger.Interface,
) *EnsureVectorStoreUseCase {
	return &EnsureVectorStoreUseCase{
		projectRepo: projectRepo,
		provider:    provider,
		limits:      limitsService,
		logger:      logger,
	}
}

func (uc *EnsureVectorStoreUseCase) Execute(ctx context.Context, ref ProjectRef) (*EnsureVectorStoreResult, error) {
	if err := limits.AuthorizeTenant(ref.ActorTenantID, ref.TenantID); err != nil {
		return nil, err
	}
	if err := uc.limits.CheckRate(ctx, ref.TenantID); err != nil {
		return nil, err
	}

	p, err := loadOwnedProject(ctx, uc.projectRepo, uc.logger, ref.TenantID, ref.ProjectID)
	if err != nil {
		return nil, err
	}
	if p.HasVectorStore() {
		return &EnsureVectorStoreResult{Status: StatusExists, VectorStoreID: p.VectorStoreID()}, nil
	}

	storeID, err := uc.provider.CreateStore(ctx, p.StoreName())
	if err != nil {
		uc.logger.Errorw("failed to create vector store", "project_id", p.ID(), "error", err)
		return nil, err
	}
	if err := p.AssignVectorStore(storeID); err != nil {
		return nil, err
	}

	if err := uc.projectRepo.SetVectorStoreID(ctx, p); err != nil {
		if !stderrors.Is(err, project.ErrVectorStoreAssigned) {
			uc.logger.Errorw("failed to save vector store id", "project_id", p.ID(), "vector_store_id", storeID, "error", err)
			return nil, err
		}
		// a concurrent call bound a store first; ours is left orphaned
		current, err := loadOwnedProject(ctx, uc.projectRepo, uc.logger, ref.TenantID, ref.ProjectID)
		if err != nil {
			return nil, err
		}
		uc.logger.Warnw("vector store already bound, discarding new store",
			"project_id", p.ID(),
			"orphaned_vector_store_id", storeID,
			"vector_store_id", current.VectorStoreID(),
		)
		return &EnsureVectorStoreResult{Status: StatusExists, VectorStoreID: current.VectorStoreID()}, nil
	}

	uc.logger.Infow("vector store bound to project", "project_id", p.ID(), "vector_store_id", storeID)
	return &EnsureVectorStoreResult{Status: StatusCreated, VectorStoreID: storeID}, nil
}
