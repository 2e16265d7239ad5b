package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docsphere/docsphere/internal/application/query/usecases"
	"github.com/docsphere/docsphere/internal/shared/logger"
	"github.com/docsphere/docsphere/internal/shared/utils"
)

type QueryHandler struct {
	askUC  askUseCase
	logger logger.Interface
}

func NewQueryHandler(askUC askUseCase, logger logger.Interface) *QueryHandler {
	return &QueryHandler{askUC: askUC, logger: logger}
}

type AskRequest struct {
	ProjectID string `json:"project_id" validate:"required,uuid"`
	Question  string `json:"question" validate:"required"`
	Model     string `json:"model" validate:"omitempty,max=64"`
}

// Ask answers a question from a project's documents.
// POST /api/v1/query/ask
func (h *QueryHandler) Ask(c *gin.Context) {
	tenantID, ok := actorTenant(c)
	if !ok {
		return
	}

	var req AskRequest
	if !bindJSON(c, &req) {
		return
	}
	projectID, err := utils.ParseUUID(req.ProjectID, "project_id")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.askUC.Execute(c.Request.Context(), usecases.AskCommand{
		TenantID:       tenantID,
		ProjectID:      projectID,
		Question:       req.Question,
		Model:          req.Model,
		IdempotencyKey: c.GetHeader(HeaderIdempotencyKey),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
