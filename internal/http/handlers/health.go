package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/eventforge/internal/http/response"
)

type HealthHandler struct {
	ping func(ctx context.Context) error
}

// NewHealthHandler takes an optional store ping used by the readiness check.
func NewHealthHandler(ping func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *HealthHandler) Ready(c *gin.Context) {
	if h.ping == nil {
		response.RespondOK(c, gin.H{"ready": true})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.ping(ctx); err != nil {
		response.RespondError(c, http.StatusServiceUnavailable, "store_unavailable", err)
		return
	}
	response.RespondOK(c, gin.H{"ready": true})
}
