package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/interfaces/http/middleware"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/utils"
)

// HeaderIdempotencyKey lets a client suppress duplicate processing of a
// mutating request.
const HeaderIdempotencyKey = "Idempotency-Key"

// bindJSON decodes and validates a JSON body, writing a 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("Invalid request body", err.Error()))
		return false
	}
	if err := utils.ValidateStruct(req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return false
	}
	return true
}

// actorTenant returns the tenant the bearer token was issued for.
func actorTenant(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.TenantID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
		return uuid.Nil, false
	}
	return id, true
}

// uuidParam parses a path parameter, writing a 400 on failure.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(c.Param(name), name)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return uuid.Nil, false
	}
	return id, true
}
