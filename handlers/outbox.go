package handlers

import (
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/factory_backend/middlewares"
	"bitbucket.org/mmdatafocus/factory_backend/models"
	"github.com/gin-gonic/gin"
)

type outboxReplayRequest struct {
	RecordId int `json:"record_id" binding:"required"`
}

// RegisterOps mounts admin tooling. Replay puts a DEAD or FAILED production
// event back in line for the dispatcher.
func (h *Handler) RegisterOps(r gin.IRouter) {
	ops := r.Group("/internal/ops", middlewares.RequireEmployee(), middlewares.RequireAdmin())
	ops.GET("/outbox/status", h.outboxStatus)
	ops.POST("/outbox/replay", h.replayOutboxRecord)
}

func (h *Handler) outboxStatus(c *gin.Context) {
	status, err := models.GetOutboxStatus(c.Request.Context(), h.DB)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	success(c, gin.H{
		"counts":             status.Counts,
		"oldest_undelivered": status.OldestUndelivered,
		"latest_dead":        status.LatestDead,
	})
}

func (h *Handler) replayOutboxRecord(c *gin.Context) {
	var req outboxReplayRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RecordId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "code": "InvalidRequest", "message": "record_id is required"})
		return
	}

	now := time.Now().UTC()
	result := h.DB.WithContext(c.Request.Context()).
		Model(&models.ProductionEventRecord{}).
		Where("id = ? AND publish_status IN ?", req.RecordId,
			[]string{models.OutboxPublishStatusDead, models.OutboxPublishStatusFailed}).
		Updates(map[string]interface{}{
			"publish_status":     models.OutboxPublishStatusFailed,
			"publish_attempts":   0,
			"next_attempt_at":    &now,
			"locked_at":          nil,
			"locked_by":          nil,
			"last_publish_error": nil,
		})
	if result.Error != nil {
		h.respondError(c, result.Error, nil)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "code": "NotFound", "message": "no DEAD or FAILED event with this id"})
		return
	}

	success(c, gin.H{
		"record_id":       req.RecordId,
		"publish_status":  models.OutboxPublishStatusFailed,
		"next_attempt_at": now.Format(time.RFC3339Nano),
	})
}
