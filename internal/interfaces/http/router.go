package http

import (
	"github.com/gin-gonic/gin"

	"github.com/docsphere/docsphere/internal/interfaces/http/middleware"
)

// SetupRoutes registers middleware and every route group on the engine.
func (c *Container) SetupRoutes() {
	c.engine.Use(middleware.Logger(c.log))
	c.engine.Use(middleware.Recovery(c.log))

	c.engine.GET("/health", c.hdlrs.healthHandler.Health)
	if c.metrics != nil {
		c.engine.GET(c.cfg.Metrics.Path, gin.WrapH(c.metrics.Handler()))
	}

	v1 := c.engine.Group("/api/v1")
	c.setupPublicRoutes(v1)

	authed := v1.Group("")
	authed.Use(c.authMiddleware.RequireTenant(), middleware.RateLimitHeaders())
	c.setupBillingRoutes(authed)
	c.setupQueryRoutes(authed)
	c.setupProjectRoutes(authed)
}

func (c *Container) setupPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/plans", c.hdlrs.billingHandler.ListPlans)
	rg.POST("/tenants", c.hdlrs.tenantHandler.CreateTenant)
}

func (c *Container) setupBillingRoutes(rg *gin.RouterGroup) {
	rg.POST("/billing/subscribe", c.hdlrs.billingHandler.Subscribe)
	rg.GET("/limits/current", c.hdlrs.billingHandler.CurrentLimits)
}

func (c *Container) setupQueryRoutes(rg *gin.RouterGroup) {
	rg.POST("/query/ask", c.hdlrs.queryHandler.Ask)
}

func (c *Container) setupProjectRoutes(rg *gin.RouterGroup) {
	projects := rg.Group("/tenants/:tenant_id/projects")
	h := c.hdlrs.projectHandler

	projects.POST("", h.CreateProject)
	projects.POST("/:project_id/vector-store", h.EnsureVectorStore)
	projects.GET("/:project_id/files", h.ListFiles)
	projects.POST("/:project_id/files", h.UploadFiles)
	projects.DELETE("/:project_id/files/:file_id", h.RemoveFile)
	projects.GET("/:project_id/messages", h.ListMessages)
}

// GetEngine returns the gin engine.
func (c *Container) GetEngine() *gin.Engine {
	return c.engine
}
