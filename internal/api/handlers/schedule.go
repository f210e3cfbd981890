package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pcarvalho/brandwatch/internal/db"
	"github.com/pcarvalho/brandwatch/internal/queue"
)

type UpdateScheduleRequest struct {
	IsEnabled     *bool  `json:"is_enabled" binding:"required"`
	IntervalHours int    `json:"interval_hours" binding:"required,min=1,max=168"`
	Timezone      string `json:"timezone"`
}

func (h *Handler) GetSchedule(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	setting, err := h.repo.GetCronSetting(tenantID)
	if err != nil {
		if err.Error() == "cron setting not found" {
			c.JSON(http.StatusNotFound, gin.H{"error": "No schedule configured for tenant"})
			return
		}
		h.logger.Error("Failed to get cron setting", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, setting)
}

func (h *Handler) UpdateSchedule(c *gin.Context) {
	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenantID := c.GetString("tenant_id")

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid timezone"})
		return
	}

	setting := &db.CronSetting{
		TenantID:      tenantID,
		IsEnabled:     *req.IsEnabled,
		IntervalHours: req.IntervalHours,
		Timezone:      timezone,
		UpdatedAt:     time.Now(),
	}

	if err := h.repo.UpsertCronSetting(setting); err != nil {
		h.logger.Error("Failed to save cron setting", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save schedule"})
		return
	}

	// The scheduler runs in another process; tell it to re-arm the timer.
	trigger := &queue.TriggerJob{
		ID:        uuid.New().String(),
		Type:      queue.TriggerReschedule,
		TenantID:  tenantID,
		CreatedAt: time.Now(),
	}
	if err := h.triggers.Push(c.Request.Context(), trigger); err != nil {
		h.logger.Error("Failed to push reschedule trigger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Schedule saved but scheduler not notified"})
		return
	}

	h.logger.Info("Schedule updated",
		zap.String("tenant_id", tenantID),
		zap.Bool("enabled", setting.IsEnabled),
		zap.Int("interval_hours", setting.IntervalHours),
	)

	c.JSON(http.StatusOK, setting)
}

func (h *Handler) TriggerCollection(c *gin.Context) {
	tenantID := c.GetString("tenant_id")

	trigger := &queue.TriggerJob{
		ID:        uuid.New().String(),
		Type:      queue.TriggerCollect,
		TenantID:  tenantID,
		CreatedAt: time.Now(),
	}

	if err := h.triggers.Push(c.Request.Context(), trigger); err != nil {
		h.logger.Error("Failed to push collection trigger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger collection"})
		return
	}

	h.logger.Info("Collection triggered",
		zap.String("tenant_id", tenantID),
		zap.String("trigger_id", trigger.ID),
	)

	c.JSON(http.StatusAccepted, gin.H{"trigger_id": trigger.ID})
}
