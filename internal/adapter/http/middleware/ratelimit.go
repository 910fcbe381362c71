package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtnguyen/shop-api/internal/logging"
)

const rateLimitMessage = "Too many requests, please try again later."

// Limiter is the per-client request ceiling.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit rejects clients past their window budget with a fixed message.
// A nil limiter disables the ceiling.
func RateLimit(l Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ok, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logging.From(c).Error("rate limiter unavailable", "error", err)
		}
		if !ok {
			abort(c, http.StatusTooManyRequests, rateLimitMessage)
			return
		}
		c.Next()
	}
}
