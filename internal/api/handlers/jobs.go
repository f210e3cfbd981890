package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) ListJobs(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	jobs, err := h.repo.GetJobsByTenant(tenantID, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list collection jobs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	total, err := h.repo.CountJobsByTenant(tenantID)
	if err != nil {
		h.logger.Error("Failed to count collection jobs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *Handler) GetJob(c *gin.Context) {
	jobID := c.Param("id")
	tenantID := c.GetString("tenant_id")

	job, err := h.repo.GetCollectionJob(jobID, tenantID)
	if err != nil {
		if err.Error() == "collection job not found" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Collection job not found"})
			return
		}
		h.logger.Error("Failed to get collection job", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, job)
}
