package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/omkarspace/Doc-Check/internal/stats"
)

type StatsHandler struct {
	stats  *stats.Service
	logger *slog.Logger
}

func NewStatsHandler(statsSvc *stats.Service, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: statsSvc, logger: logger}
}

func (h *StatsHandler) Statistics(c *gin.Context) {
	s, err := h.stats.Collect(c.Request.Context())
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
