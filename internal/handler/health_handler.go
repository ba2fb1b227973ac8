package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/alecbaum/wagl-backend-sub002/internal/relay"
	"github.com/alecbaum/wagl-backend-sub002/pkg/response"
)

// HealthHandler reports liveness of the backend and its dependencies.
type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
	relay *relay.Client
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client, relayClient *relay.Client) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: rdb,
		relay: relayClient,
	}
}

// RegisterRoutes registers health routes.
func (h *HealthHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
}

// Health pings each dependency with a short deadline. Dependency
// failures are reported, they do not fail the endpoint.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := gin.H{
		"status": "ok",
	}

	if h.db != nil {
		if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "down"
		} else {
			status["database"] = "up"
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			status["redis"] = "down"
		} else {
			status["redis"] = "up"
		}
	}

	if h.relay != nil {
		status["relay_circuit"] = h.relay.BreakerState().String()
		if err := h.relay.Health(ctx); err != nil {
			status["relay"] = "down"
		} else {
			status["relay"] = "up"
		}
	}

	response.Success(c, status)
}
