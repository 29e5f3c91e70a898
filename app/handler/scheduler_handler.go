package handler

import (
	"context"
	"net/http"

	"clickboard/internal/scheduler"
	"clickboard/pkg/logger"

	"github.com/gin-gonic/gin"
)

type schedulerController interface {
	Status() scheduler.Status
	TriggerCycle(ctx context.Context) (bool, error)
}

// SchedulerHandler exposes the synthetic engagement scheduler
type SchedulerHandler struct {
	scheduler schedulerController
}

// NewSchedulerHandler creates scheduler handler. A nil scheduler means it is disabled.
func NewSchedulerHandler(s schedulerController) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s}
}

func (h *SchedulerHandler) disabled(c *gin.Context) bool {
	if h.scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler disabled"})
		return true
	}
	return false
}

// GetStatus returns the running cycle's progress
// @Summary Get scheduler status
// @Tags scheduler
// @Produce json
// @Success 200 {object} scheduler.Status
// @Router /api/v1/scheduler/status [get]
func (h *SchedulerHandler) GetStatus(c *gin.Context) {
	if h.disabled(c) {
		return
	}
	c.JSON(http.StatusOK, h.scheduler.Status())
}

// Trigger starts a cycle now unless one is already running
// @Summary Trigger scheduler cycle
// @Tags scheduler
// @Produce json
// @Router /api/v1/scheduler/trigger [post]
func (h *SchedulerHandler) Trigger(c *gin.Context) {
	if h.disabled(c) {
		return
	}

	// The cycle outlives the request.
	ctx := context.WithoutCancel(c.Request.Context())
	started, err := h.scheduler.TriggerCycle(ctx)
	if err != nil {
		logger.WarnCtx(ctx, "manual cycle trigger failed: %v", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if !started {
		c.JSON(http.StatusConflict, gin.H{"started": false, "message": "a cycle is already running"})
		return
	}

	st := h.scheduler.Status()
	c.JSON(http.StatusAccepted, gin.H{"started": true, "cycleId": st.CycleID})
}
