package middleware

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/docsphere/docsphere/internal/application/limits"
	"github.com/docsphere/docsphere/internal/infrastructure/ratelimit"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRetryAfter         = "Retry-After"
)

// RateLimitHeaders reports the tenant's fixed-window counters on the
// response. The limiter is consulted by the use cases, after request
// validation, so the headers are only set on requests that reached it.
func RateLimitHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		report := func(r ratelimit.Result) {
			h := c.Writer.Header()
			h.Set(HeaderRateLimitLimit, strconv.Itoa(r.Limit))
			h.Set(HeaderRateLimitRemaining, strconv.Itoa(r.Remaining))
			if !r.Allowed {
				secs := int(math.Ceil(r.RetryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				h.Set(HeaderRetryAfter, strconv.Itoa(secs))
			}
		}
		c.Request = c.Request.WithContext(limits.WithRateReporter(c.Request.Context(), report))
		c.Next()
	}
}
