package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docsphere/docsphere/internal/shared/logger"
	"github.com/docsphere/docsphere/internal/shared/utils"
)

const healthCheckTimeout = 3 * time.Second

// Dependency is a backing service probed by /health.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

type HealthHandler struct {
	deps   []Dependency
	logger logger.Interface
}

func NewHealthHandler(logger logger.Interface, deps ...Dependency) *HealthHandler {
	return &HealthHandler{deps: deps, logger: logger}
}

// Health reports "ok" per dependency, answering 503 if any is down.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.deps))
	for _, d := range h.deps {
		if err := d.Ping(ctx); err != nil {
			h.logger.Warnw("health check failed", "dependency", d.Name, "error", err)
			checks[d.Name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[d.Name] = "ok"
	}

	if status != http.StatusOK {
		c.JSON(status, utils.APIResponse{Success: false, Data: checks, Message: "degraded"})
		return
	}
	utils.SuccessResponse(c, status, "healthy", checks)
}
