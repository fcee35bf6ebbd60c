package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storemirror/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// healthCheckTimeout bounds the database ping
const healthCheckTimeout = 2 * time.Second

// Pinger reports whether the backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	Status   string `json:"status"`
	Time     string `json:"time"`
	Database string `json:"database"`
}

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check reports service and database health
// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	now := time.Now().UTC().Format(time.RFC3339)

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:   "unhealthy",
			Time:     now,
			Database: "error",
		})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "healthy",
		Time:     now,
		Database: "ok",
	})
}
