package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docsphere/docsphere/internal/application/billing/usecases"
	"github.com/docsphere/docsphere/internal/shared/logger"
	"github.com/docsphere/docsphere/internal/shared/utils"
)

const plansCacheControl = "public, max-age=300"

type BillingHandler struct {
	subscribeUC subscribeUseCase
	listPlansUC listPlansUseCase
	getLimitsUC getLimitsUseCase
	logger      logger.Interface
}

func NewBillingHandler(
	subscribeUC subscribeUseCase,
	listPlansUC listPlansUseCase,
	getLimitsUC getLimitsUseCase,
	logger logger.Interface,
) *BillingHandler {
	return &BillingHandler{
		subscribeUC: subscribeUC,
		listPlansUC: listPlansUC,
		getLimitsUC: getLimitsUC,
		logger:      logger,
	}
}

// SubscribeRequest leaves cycle unvalidated here so the use case can
// reject it before the rate limit is consulted.
type SubscribeRequest struct {
	PlanID string `json:"plan_id"`
	Cycle  string `json:"cycle"`
}

// Subscribe starts or replaces the caller's subscription.
// POST /api/v1/billing/subscribe
func (h *BillingHandler) Subscribe(c *gin.Context) {
	tenantID, ok := actorTenant(c)
	if !ok {
		return
	}

	var req SubscribeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.subscribeUC.Execute(c.Request.Context(), usecases.SubscribeCommand{
		TenantID: tenantID,
		PlanID:   req.PlanID,
		Cycle:    req.Cycle,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Subscription updated", result)
}

// ListPlans returns the public plan catalog.
// GET /api/v1/plans
func (h *BillingHandler) ListPlans(c *gin.Context) {
	plans, err := h.listPlansUC.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	c.Header("Cache-Control", plansCacheControl)
	utils.SuccessResponseWithETag(c, "", plans)
}

// CurrentLimits reports the caller's plan limits and period usage.
// GET /api/v1/limits/current
func (h *BillingHandler) CurrentLimits(c *gin.Context) {
	tenantID, ok := actorTenant(c)
	if !ok {
		return
	}

	result, err := h.getLimitsUC.Execute(c.Request.Context(), tenantID)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
