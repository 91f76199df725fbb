package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/physioflow/practice-api/internal/handler"
)

// ClientRateLimiter keys a token bucket per client IP. Idle buckets expire
// from the cache so the map does not grow unbounded.
func ClientRateLimiter(rps float64, burst int) gin.HandlerFunc {
	limiters := gocache.New(10*time.Minute, 15*time.Minute)

	return func(c *gin.Context) {
		key := c.ClientIP()

		var limiter *rate.Limiter
		if v, found := limiters.Get(key); found {
			limiter = v.(*rate.Limiter)
		} else {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters.SetDefault(key, limiter)
		}

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, handler.NewErrorResponse("rate limit exceeded"))
			return
		}
		c.Next()
	}
}
