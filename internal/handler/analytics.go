package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"tradejournal/internal/service"
)

type AnalyticsHandler struct {
	Analytics *service.AnalyticsService
}

func (h *AnalyticsHandler) Register(r gin.IRouter) {
	r.GET("/analytics", h.get)
}

// @Summary Trade breakdowns by hour, day, symbol or strategy
// @Tags analytics
// @Produce json
// @Param type query string false "hourly, daily-win-rate, symbol-distribution or strategy-distribution"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/v1/analytics [get]
func (h *AnalyticsHandler) get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	kind := strings.TrimSpace(c.Query("type"))
	data, err := h.Analytics.Compute(c.Request.Context(), userID, kind)
	if err != nil {
		writeError(c, err)
		return
	}
	if kind == "" {
		kind = service.AnalyticsHourly
	}
	Ok(c, data, map[string]any{"type": kind})
}
