package handlers

import (
	"context"
	"net/http"
	"time"

	"cycup_backend/internal/database"
	"cycup_backend/internal/logger"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	*BaseHandler
	redis *database.Redis
}

// NewHealthHandler; redis может быть nil
func NewHealthHandler(base *BaseHandler, redis *database.Redis) *HealthHandler {
	return &HealthHandler{BaseHandler: base, redis: redis}
}

func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
}

// Health godoc
// @Summary Проверка БД и Redis
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok", "database": "connected", "redis": "disabled"}

	sqlDB, err := h.GetDB(c).DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.CtxWithError(ctx, "health check: database unavailable", err)
		status = http.StatusServiceUnavailable
		body["status"] = "error"
		body["database"] = "disconnected"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			logger.CtxWithError(ctx, "health check: redis unavailable", err)
			status = http.StatusServiceUnavailable
			body["status"] = "error"
			body["redis"] = "disconnected"
		} else {
			body["redis"] = "connected"
		}
	}

	c.JSON(status, body)
}
