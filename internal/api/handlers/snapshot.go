package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pcarvalho/brandwatch/internal/db"
)

// GetSnapshot serves the tenant's latest monitoring snapshot from the redis
// cache, falling back to the database when the cache is cold.
func (h *Handler) GetSnapshot(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	var cached db.MonitoringSnapshot
	if err := h.cache.GetCachedSnapshot(c.Request.Context(), tenantID, &cached); err == nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	snapshot, err := h.repo.GetSnapshot(tenantID)
	if err != nil {
		if err.Error() == "snapshot not found" {
			c.JSON(http.StatusNotFound, gin.H{"error": "No snapshot available yet"})
			return
		}
		h.logger.Error("Failed to get snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.cache.CacheSnapshot(c.Request.Context(), tenantID, snapshot); err != nil {
		h.logger.Warn("Failed to cache snapshot", zap.Error(err))
	}

	c.JSON(http.StatusOK, snapshot)
}
