package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyRequired checks that the caller presented the configured X-API-Key
// header. Per-key quotas and daily caps are a collaborator concern outside
// this middleware, which only enforces presence and equality against the
// one operator-configured key.
func APIKeyRequired(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "API key not configured",
			})
			return
		}

		provided := c.GetHeader("X-API-Key")
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "X-API-Key header required",
			})
			return
		}

		if provided != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid API key",
			})
			return
		}

		c.Next()
	}
}
