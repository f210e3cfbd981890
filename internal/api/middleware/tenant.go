package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Tenant scopes every request to the tenant named in the X-Tenant-ID header.
// Authentication proper lives outside this service; the header is set by the
// gateway in front of it.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "X-Tenant-ID header is required"})
			c.Abort()
			return
		}

		c.Set("tenant_id", tenantID)
		c.Next()
	}
}
