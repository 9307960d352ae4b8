package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RedisPinger is the optional cache connection.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health endpoint.
type HealthHandler struct {
	db                   Pinger
	redis                RedisPinger
	classifierConfigured bool
}

// NewHealthHandler creates a new HealthHandler. redis may be nil.
func NewHealthHandler(db Pinger, redis RedisPinger, classifierConfigured bool) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, classifierConfigured: classifierConfigured}
}

// GetHealth responds with database, cache and classifier status. An
// unreachable database makes the service unhealthy.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK

	dbStatus := "connected"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "disconnected"
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = "connected"
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "disconnected"
			if status == "healthy" {
				status = "degraded"
			}
		}
	}

	c.JSON(code, gin.H{
		"status":   status,
		"version":  "1.0.0",
		"uptime":   int(time.Since(startTime).Seconds()),
		"database": dbStatus,
		"redis":    redisStatus,
		"ai": gin.H{
			"configured": h.classifierConfigured,
		},
	})
}
