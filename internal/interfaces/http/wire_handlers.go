package http

import (
	"context"

	"github.com/docsphere/docsphere/internal/infrastructure/database"
	"github.com/docsphere/docsphere/internal/interfaces/http/handlers"
	"github.com/docsphere/docsphere/internal/interfaces/http/middleware"
)

// allHandlers holds every HTTP handler instance.
type allHandlers struct {
	healthHandler  *handlers.HealthHandler
	tenantHandler  *handlers.TenantHandler
	billingHandler *handlers.BillingHandler
	projectHandler *handlers.ProjectHandler
	queryHandler   *handlers.QueryHandler
}

func (c *Container) initHandlers() {
	u := c.ucs

	c.hdlrs = &allHandlers{
		healthHandler: handlers.NewHealthHandler(c.log,
			handlers.Dependency{Name: "database", Ping: func(context.Context) error { return database.Ping(c.db) }},
			handlers.Dependency{Name: "redis", Ping: pingRedis(c.redis)},
		),
		tenantHandler:  handlers.NewTenantHandler(u.createTenant, c.log),
		billingHandler: handlers.NewBillingHandler(u.subscribe, u.listPlans, u.getLimits, c.log),
		projectHandler: handlers.NewProjectHandler(
			u.createProject,
			u.ensureVectorStore,
			u.uploadDocuments,
			u.listFiles,
			u.removeFile,
			u.listMessages,
			c.log,
		),
		queryHandler: handlers.NewQueryHandler(u.ask, c.log),
	}

	c.authMiddleware = middleware.NewAuthMiddleware(c.jwtSvc, c.log)
}
