package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/shared/logger"
	"github.com/docsphere/docsphere/internal/shared/utils"
)

// ContextKeyTenantID holds the authenticated tenant's uuid.UUID.
const ContextKeyTenantID = "tenant_id"

// TokenParser resolves a bearer token to the tenant it was issued for.
type TokenParser interface {
	Parse(token string) (uuid.UUID, error)
}

type AuthMiddleware struct {
	tokens TokenParser
	logger logger.Interface
}

func NewAuthMiddleware(tokens TokenParser, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		logger: logger,
	}
}

func (m *AuthMiddleware) RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing authorization token")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid authorization header format")
			c.Abort()
			return
		}

		tenantID, err := m.tokens.Parse(parts[1])
		if err != nil {
			m.logger.Warnw("failed to verify token", "error", err)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextKeyTenantID, tenantID)
		c.Next()
	}
}

// TenantID returns the tenant set by RequireTenant.
func TenantID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextKeyTenantID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
