package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 2 * time.Second

// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	const op = "handler.Health"

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.health.Ping(ctx); err != nil {
		h.log.Error("health check failed", slog.String("op", op), slog.Any("error", err))

		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "unhealthy",
			"message": err.Error(),
		})

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "API and database are running",
	})
}
