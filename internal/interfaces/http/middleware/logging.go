package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/shared/logger"
)

const HeaderRequestID = "X-Request-ID"

// Logger tags each request with an id, echoing the caller's X-Request-ID
// when present, and logs one line per request once the handler returns.
func Logger(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"request_id", requestID,
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if tenantID, ok := TenantID(c); ok {
			args = append(args, "tenant_id", tenantID)
		}
		if remaining := c.Writer.Header().Get(HeaderRateLimitRemaining); remaining != "" {
			args = append(args, "rate_remaining", remaining)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Errorw("request failed", args...)
		case status >= 400:
			log.Warnw("request rejected", args...)
		default:
			log.Debugw("request served", args...)
		}
	}
}
