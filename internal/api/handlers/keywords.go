package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UpdateKeywordsRequest struct {
	Keywords []string `json:"keywords" binding:"required,min=1,max=50,dive,min=1,max=100"`
}

func (h *Handler) GetKeywords(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	keywords, err := h.repo.GetTenantKeywords(tenantID)
	if err != nil {
		h.logger.Error("Failed to get keywords", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

func (h *Handler) UpdateKeywords(c *gin.Context) {
	var req UpdateKeywordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenantID := c.GetString("tenant_id")

	seen := make(map[string]bool)
	keywords := make([]string, 0, len(req.Keywords))
	for _, kw := range req.Keywords {
		trimmed := strings.TrimSpace(kw)
		if trimmed == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Keywords must not be blank"})
			return
		}
		if seen[strings.ToLower(trimmed)] {
			continue
		}
		seen[strings.ToLower(trimmed)] = true
		keywords = append(keywords, trimmed)
	}

	if err := h.repo.SetTenantKeywords(tenantID, keywords); err != nil {
		h.logger.Error("Failed to save keywords", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save keywords"})
		return
	}

	h.logger.Info("Keywords updated",
		zap.String("tenant_id", tenantID),
		zap.Int("count", len(keywords)),
	)

	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}
