package usecases

import (
	"context"

	"github.com/docsphere/docsphere/internal/application/limits"
	"github.com/docsphere/docsphere/internal/domain/project"
	"github.com/docsphere/docsphere/internal/domain/quota"
	"github.com/docsphere/docsphere/internal/domain/retrieval"
	"github.com/docsphere/docsphere/internal/domain/usage"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

type UploadDocumentsCommand struct {
	ProjectRef
	Files          []retrieval.File
	IdempotencyKey string
}

type UploadDocumentsResult struct {
	BatchID       string               `json:"batch_id"`
	Status        string               `json:"status"`
	FileIDs       []string             `json:"file_ids"`
	FileCounts    retrieval.FileCounts `json:"file_counts"`
	CharsUploaded int64                `json:"chars_uploaded"`
}

// UploadDocumentsUseCase uploads a batch of files into a project's vector
// store. The batch is admitted or rejected whole against the project's
// upload character cap for the current billing period.
type UploadDocumentsUseCase struct {
	projectRepo project.Repository
	ledger      usage.Ledger
	provider    retrieval.Provider
	limits      *limits.Service
	logger      logger.Interface
}

func NewUploadDocumentsUseCase(
	projectRepo project.Repository,
	ledger usage.Ledger,
	provider retrieval.Provider,
	limitsService *limits.Service,
	logger logger.Interface,
) *UploadDocumentsUseCase {
	return &UploadDocumentsUseCase{
		projectRepo: projectRepo,
		ledger:      ledger,
		provider:    provider,
		limits:      limitsService,
		logger:      logger,
	}
}

func (uc *UploadDocumentsUseCase) Execute(ctx context.Context, cmd UploadDocumentsCommand) (*UploadDocumentsResult, error) {
	if len(cmd.Files) == 0 {
		return nil, errors.NewValidationError("No files provided")
	}

	if err := limits.AuthorizeTenant(cmd.ActorTenantID, cmd.TenantID); err != nil {
		return nil, err
	}
	if err := uc.limits.CheckRate(ctx, cmd.TenantID); err != nil {
		return nil, err
	}
	if err := uc.limits.ClaimIdempotency(ctx, cmd.TenantID, cmd.IdempotencyKey); err != nil {
		return nil, err
	}

	p, err := loadOwnedProject(ctx, uc.projectRepo, uc.logger, cmd.TenantID, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if !p.HasVectorStore() {
		return nil, errors.NewValidationError(msgVectorStoreMissingForUp)
	}

	sub, err := uc.limits.RequireSubscription(ctx, cmd.TenantID)
	if err != nil {
		return nil, err
	}
	plan, err := uc.limits.RequirePlan(ctx, sub)
	if err != nil {
		return nil, err
	}

	contents := make([][]byte, 0, len(cmd.Files))
	for _, f := range cmd.Files {
		contents = append(contents, f.Data)
	}
	incoming := quota.CountUploadChars(contents)

	already, err := uc.ledger.CharsUploadedForProjectInPeriod(ctx, cmd.TenantID, p.ID(), sub.CurrentPeriod())
	if err != nil {
		uc.logger.Errorw("failed to sum uploaded chars", "tenant_id", cmd.TenantID, "project_id", p.ID(), "error", err)
		return nil, err
	}
	decision := quota.EvaluateUpload(already, incoming, plan.Limits())
	if err := uc.limits.Enforce(cmd.TenantID, limits.GateUpload, decision); err != nil {
		return nil, err
	}

	fileIDs, err := uc.provider.UploadFiles(ctx, cmd.Files)
	if err != nil {
		uc.logger.Errorw("failed to upload files", "project_id", p.ID(), "files", len(cmd.Files), "error", err)
		return nil, err
	}
	batch, err := uc.provider.AttachFiles(ctx, p.VectorStoreID(), fileIDs)
	if err != nil {
		uc.logger.Errorw("failed to attach files", "project_id", p.ID(), "vector_store_id", p.VectorStoreID(), "error", err)
		return nil, err
	}

	if incoming > 0 {
		if err := uc.ledger.RecordUploadChars(ctx, cmd.TenantID, p.ID(), incoming); err != nil {
			uc.logger.Errorw("failed to record upload chars",
				"tenant_id", cmd.TenantID,
				"project_id", p.ID(),
				"chars", incoming,
				"error", err,
			)
		}
	}

	uc.logger.Infow("documents uploaded",
		"tenant_id", cmd.TenantID,
		"project_id", p.ID(),
		"files", len(fileIDs),
		"chars", incoming,
		"batch_status", batch.Status,
	)

	return &UploadDocumentsResult{
		BatchID:       batch.ID,
		Status:        batch.Status,
		FileIDs:       fileIDs,
		FileCounts:    batch.FileCounts,
		CharsUploaded: incoming,
	}, nil
}
