package http

import (
	billingUsecases "github.com/docsphere/docsphere/internal/application/billing/usecases"
	projectUsecases "github.com/docsphere/docsphere/internal/application/project/usecases"
	queryUsecases "github.com/docsphere/docsphere/internal/application/query/usecases"
	tenantUsecases "github.com/docsphere/docsphere/internal/application/tenant/usecases"
	usageUsecases "github.com/docsphere/docsphere/internal/application/usage/usecases"
	"github.com/docsphere/docsphere/internal/shared/services/markdown"
)

// allUseCases holds every use case instance.
type allUseCases struct {
	// Tenant
	createTenant *tenantUsecases.CreateTenantUseCase

	// Billing
	subscribe *billingUsecases.SubscribeUseCase
	listPlans *billingUsecases.ListPlansUseCase
	getLimits *billingUsecases.GetLimitsUseCase

	// Project
	createProject     *projectUsecases.CreateProjectUseCase
	ensureVectorStore *projectUsecases.EnsureVectorStoreUseCase
	uploadDocuments   *projectUsecases.UploadDocumentsUseCase
	listFiles         *projectUsecases.ListFilesUseCase
	removeFile        *projectUsecases.RemoveFileUseCase

	// Query
	ask          *queryUsecases.AskUseCase
	listMessages *queryUsecases.ListMessagesUseCase

	// Usage
	reportDailyUsage *usageUsecases.ReportDailyUsageUseCase
}

func (c *Container) initUseCases() {
	r := c.repos
	ls := c.limitsService

	c.ucs = &allUseCases{
		createTenant: tenantUsecases.NewCreateTenantUseCase(r.tenantRepo, r.planRepo, r.subscriptionRepo, c.txMgr, c.jwtSvc, c.log),

		subscribe: billingUsecases.NewSubscribeUseCase(r.tenantRepo, r.planRepo, r.subscriptionRepo, ls, c.txMgr, c.log),
		listPlans: billingUsecases.NewListPlansUseCase(r.planRepo, c.log),
		getLimits: billingUsecases.NewGetLimitsUseCase(r.subscriptionRepo, r.projectRepo, r.ledger, ls, c.log),

		createProject:     projectUsecases.NewCreateProjectUseCase(r.projectRepo, ls, c.log),
		ensureVectorStore: projectUsecases.NewEnsureVectorStoreUseCase(r.projectRepo, c.provider, ls, c.log),
		uploadDocuments:   projectUsecases.NewUploadDocumentsUseCase(r.projectRepo, r.ledger, c.provider, ls, c.log),
		listFiles:         projectUsecases.NewListFilesUseCase(r.projectRepo, r.subscriptionRepo, r.ledger, c.provider, ls, c.log),
		removeFile:        projectUsecases.NewRemoveFileUseCase(r.projectRepo, c.provider, ls, c.log),

		ask:          queryUsecases.NewAskUseCase(r.projectRepo, r.messageRepo, r.ledger, c.provider, markdown.NewRenderer(), ls, c.log),
		listMessages: queryUsecases.NewListMessagesUseCase(r.projectRepo, r.messageRepo, c.log),

		reportDailyUsage: usageUsecases.NewReportDailyUsageUseCase(r.ledger, c.metrics, c.log),
	}
}
