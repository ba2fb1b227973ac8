package ratelimit

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/alecbaum/wagl-backend-sub002/internal/domain"
	"github.com/alecbaum/wagl-backend-sub002/internal/middleware"
	"github.com/alecbaum/wagl-backend-sub002/pkg/response"
)

// Middleware returns a Gin middleware enforcing the quota for a named
// endpoint. Identity is the authenticated user when present, otherwise
// the client IP; the tier comes from the auth context.
func Middleware(limiter *Limiter, endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.GetUserID(c)
		if identity == "" {
			identity = "ip:" + c.ClientIP()
		}
		tier := domain.ParseTier(middleware.GetTier(c))

		res := limiter.Check(c.Request.Context(), identity, tier, endpoint)

		c.Header("X-RateLimit-Limit", strconv.FormatInt(res.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			response.TooManyRequests(c, "rate limit exceeded", res.Limit, res.Used, res.ResetAt, res.RetryAfter)
			c.Abort()
			return
		}

		c.Next()
	}
}
