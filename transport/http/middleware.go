package http

import (
	"github.com/gin-gonic/gin"
)

const clientIdentityKey = "clientIdentity"

// ClientIdentityMiddleware resolves the stable identifier that keys the rate
// limiter for this request. The client IP (X-Forwarded-For aware via gin) is
// used as-is; no normalization is applied.
func ClientIdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(clientIdentityKey, c.ClientIP())
		c.Next()
	}
}

// clientIdentity returns the identifier set by ClientIdentityMiddleware, or
// an empty string when the middleware did not run.
func clientIdentity(c *gin.Context) string {
	if v, ok := c.Get(clientIdentityKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
