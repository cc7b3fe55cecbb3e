package handler

import (
	"github.com/gin-gonic/gin"

	"tradejournal/internal/service"
)

type StatsHandler struct {
	Stats *service.StatsService
}

func (h *StatsHandler) Register(r gin.IRouter) {
	r.GET("/stats", h.get)
	r.POST("/stats/rebuild", h.rebuild)
}

// @Summary Aggregate trade statistics of the caller
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/stats [get]
func (h *StatsHandler) get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sum, err := h.Stats.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, sum, nil)
}

// @Summary Recompute the caller's statistics from every stored trade
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/stats/rebuild [post]
func (h *StatsHandler) rebuild(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sum, err := h.Stats.Rebuild(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, sum, nil)
}
