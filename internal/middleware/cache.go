package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CacheControl marks safe GET responses cacheable for the given TTL in
// seconds; everything else is explicitly uncacheable.
func CacheControl(seconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			c.Writer.Header().Set("Cache-Control", fmt.Sprintf("private, max-age=%d", seconds))
		} else {
			c.Writer.Header().Set("Cache-Control", "no-store")
		}
		c.Next()
	}
}
