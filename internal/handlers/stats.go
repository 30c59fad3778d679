package handlers

import (
	"context"
	"net/http"

	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	stats *services.StatsService
	ping  func(ctx context.Context) error
}

func NewStatsHandler(stats *services.StatsService, ping func(ctx context.Context) error) *StatsHandler {
	return &StatsHandler{stats: stats, ping: ping}
}

func (h *StatsHandler) Stats(c *gin.Context) {
	stats, err := h.stats.Global(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Health reports liveness and database reachability.
func (h *StatsHandler) Health(c *gin.Context) {
	if err := h.ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
