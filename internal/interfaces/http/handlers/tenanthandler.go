package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/docsphere/docsphere/internal/application/tenant/usecases"
	"github.com/docsphere/docsphere/internal/shared/logger"
	"github.com/docsphere/docsphere/internal/shared/utils"
)

type TenantHandler struct {
	createTenantUC createTenantUseCase
	logger         logger.Interface
}

func NewTenantHandler(createTenantUC createTenantUseCase, logger logger.Interface) *TenantHandler {
	return &TenantHandler{
		createTenantUC: createTenantUC,
		logger:         logger,
	}
}

type CreateTenantRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	PlanID       string `json:"plan_id" validate:"omitempty,max=64"`
	BillingCycle string `json:"billing_cycle"`
}

// CreateTenant bootstraps a tenant with a subscription starting today.
// POST /api/v1/tenants
func (h *TenantHandler) CreateTenant(c *gin.Context) {
	var req CreateTenantRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.createTenantUC.Execute(c.Request.Context(), usecases.CreateTenantCommand{
		Name:         req.Name,
		PlanID:       req.PlanID,
		BillingCycle: req.BillingCycle,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Tenant created successfully")
}
