package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/genguard/pkg/logger"
)

// Pinger is satisfied by the Redis connection manager and the KV store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	redis   Pinger
	timeout time.Duration
	log     logger.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(redis Pinger, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		redis:   redis,
		timeout: 2 * time.Second,
		log:     log.WithComponent("HealthHandler"),
	}
}

// LivenessCheck reports that the process is up.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// ReadinessCheck reports whether Redis, the only authority for limiter and
// quota state, is reachable.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status, httpStatus, redisStatus := "ready", http.StatusOK, "ok"
	if err := h.redis.Ping(ctx); err != nil {
		h.log.Warn(ctx, "Readiness check failed", logger.Error(err))
		status, httpStatus, redisStatus = "unavailable", http.StatusServiceUnavailable, "error: "+err.Error()
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    gin.H{"redis": redisStatus},
	})
}
