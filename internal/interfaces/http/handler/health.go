package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cashflow/backend/internal/infrastructure/scheduler"
)

// HealthHandler reports service liveness and background job state
type HealthHandler struct {
	BaseHandler
	db        *gorm.DB
	scheduler *scheduler.MaintenanceScheduler
	startedAt time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db *gorm.DB, sched *scheduler.MaintenanceScheduler) *HealthHandler {
	return &HealthHandler{db: db, scheduler: sched, startedAt: time.Now()}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := gin.H{
		"status":  "ok",
		"uptime":  time.Since(h.startedAt).String(),
		"time":    time.Now().Format(time.RFC3339),
		"db":      "ok",
		"version": "1.0",
	}

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status["db"] = "unreachable"
			status["status"] = "degraded"
		}
	}
	if h.scheduler != nil {
		status["scheduler"] = h.scheduler.GetStatus()
	}

	h.Success(c, status)
}
