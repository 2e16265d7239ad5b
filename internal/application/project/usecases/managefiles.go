package usecases

import (
	"context"

	"github.com/docsphere/docsphere/internal/application/limits"
	"github.com/docsphere/docsphere/internal/domain/project"
	"github.com/docsphere/docsphere/internal/domain/retrieval"
	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/domain/usage"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

type ListFilesResult struct {
	VectorStoreID string                `json:"vector_store_id"`
	Files         []retrieval.StoreFile `json:"files"`
	// CharsUploaded is this project's share of the current period's
	// upload usage, or 0 without a subscription.
	CharsUploaded int64 `json:"chars_uploaded"`
}

type ListFilesUseCase struct {
	projectRepo      project.Repository
	subscriptionRepo subscription.SubscriptionRepository
	ledger           usage.Ledger
	provider         retrieval.Provider
	limits           *limits.Service
	logger           logger.Interface
}

func NewListFilesUseCase(
	projectRepo project.Repository,
	subscriptionRepo subscription.SubscriptionRepository,
	ledger usage.Ledger,
	provider retrieval.Provider,
	limitsService *limits.Service,
	logger logger.Interface,
) *ListFilesUseCase {
	return &ListFilesUseCase{
		projectRepo:      projectRepo,
		subscriptionRepo: subscriptionRepo,
		ledger:           ledger,
		provider:         provider,
		limits:           limitsService,
		logger:           logger,
	}
}

func (uc *ListFilesUseCase) Execute(ctx context.Context, ref ProjectRef) (*ListFilesResult, error) {
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
	if !p.HasVectorStore() {
		return nil, errors.NewValidationError(msgVectorStoreMissing)
	}

	files, err := uc.provider.ListFiles(ctx, p.VectorStoreID())
	if err != nil {
		uc.logger.Errorw("failed to list files", "project_id", p.ID(), "error", err)
		return nil, err
	}

	result := &ListFilesResult{VectorStoreID: p.VectorStoreID(), Files: files}

	sub, err := uc.subscriptionRepo.Get(ctx, ref.TenantID)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		chars, err := uc.ledger.CharsUploadedForProjectInPeriod(ctx, ref.TenantID, p.ID(), sub.CurrentPeriod())
		if err != nil {
			return nil, err
		}
		result.CharsUploaded = chars
	}
	return result, nil
}

type RemoveFileCommand struct {
	ProjectRef
	FileID    string
	DeleteRaw bool
}

type RemoveFileResult struct {
	FileID     string `json:"file_id"`
	Removed    bool   `json:"removed"`
	RawDeleted bool   `json:"raw_deleted"`
}

// RemoveFileUseCase detaches a file from the project's store. Uploaded
// characters are not refunded.
type RemoveFileUseCase struct {
	projectRepo project.Repository
	provider    retrieval.Provider
	limits      *limits.Service
	logger      logger.Interface
}

func NewRemoveFileUseCase(
	projectRepo project.Repository,
	provider retrieval.Provider,
	limitsService *limits.Service,
	logger logger.Interface,
) *RemoveFileUseCase {
	return &RemoveFileUseCase{
		projectRepo: projectRepo,
		provider:    provider,
		limits:      limitsService,
		logger:      logger,
	}
}

func (uc *RemoveFileUseCase) Execute(ctx context.Context, cmd RemoveFileCommand) (*RemoveFileResult, error) {
	if cmd.FileID == "" {
		return nil, errors.NewValidationError("file_id is required")
	}
	if err := limits.AuthorizeTenant(cmd.ActorTenantID, cmd.TenantID); err != nil {
		return nil, err
	}
	if err := uc.limits.CheckRate(ctx, cmd.TenantID); err != nil {
		return nil, err
	}

	p, err := loadOwnedProject(ctx, uc.projectRepo, uc.logger, cmd.TenantID, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if !p.HasVectorStore() {
		return nil, errors.NewValidationError(msgVectorStoreMissing)
	}

	if err := uc.provider.RemoveFile(ctx, p.VectorStoreID(), cmd.FileID, cmd.DeleteRaw); err != nil {
		uc.logger.Errorw("failed to remove file", "project_id", p.ID(), "file_id", cmd.FileID, "error", err)
		return nil, err
	}

	return &RemoveFileResult{FileID: cmd.FileID, Removed: true, RawDeleted: cmd.DeleteRaw}, nil
}
