package handlers

import (
	"context"

	"github.com/google/uuid"

	billingdto "github.com/docsphere/docsphere/internal/application/billing/dto"
	billingUsecases "github.com/docsphere/docsphere/internal/application/billing/usecases"
	projectUsecases "github.com/docsphere/docsphere/internal/application/project/usecases"
	queryUsecases "github.com/docsphere/docsphere/internal/application/query/usecases"
	tenantUsecases "github.com/docsphere/docsphere/internal/application/tenant/usecases"
)

// Use case interfaces for TenantHandler

type createTenantUseCase interface {
	Execute(ctx context.Context, cmd tenantUsecases.CreateTenantCommand) (*tenantUsecases.CreateTenantResult, error)
}

// Use case interfaces for BillingHandler

type subscribeUseCase interface {
	Execute(ctx context.Context, cmd billingUsecases.SubscribeCommand) (*billingUsecases.SubscribeResult, error)
}

type listPlansUseCase interface {
	Execute(ctx context.Context) ([]billingdto.PlanDTO, error)
}

type getLimitsUseCase interface {
	Execute(ctx context.Context, tenantID uuid.UUID) (*billingUsecases.GetLimitsResult, error)
}

// Use case interfaces for ProjectHandler

type createProjectUseCase interface {
	Execute(ctx context.Context, cmd projectUsecases.CreateProjectCommand) (*projectUsecases.CreateProjectResult, error)
}

type ensureVectorStoreUseCase interface {
	Execute(ctx context.Context, ref projectUsecases.ProjectRef) (*projectUsecases.EnsureVectorStoreResult, error)
}

type uploadDocumentsUseCase interface {
	Execute(ctx context.Context, cmd projectUsecases.UploadDocumentsCommand) (*projectUsecases.UploadDocumentsResult, error)
}

type listFilesUseCase interface {
	Execute(ctx context.Context, ref projectUsecases.ProjectRef) (*projectUsecases.ListFilesResult, error)
}

type removeFileUseCase interface {
	Execute(ctx context.Context, cmd projectUsecases.RemoveFileCommand) (*projectUsecases.RemoveFileResult, error)
}

type listMessagesUseCase interface {
	Execute(ctx context.Context, q queryUsecases.ListMessagesQuery) ([]queryUsecases.MessageDTO, error)
}

// Use case interfaces for QueryHandler

type askUseCase interface {
	Execute(ctx context.Context, cmd queryUsecases.AskCommand) (*queryUsecases.AskResult, error)
}
