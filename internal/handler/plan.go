package handler

import (
	"github.com/gin-gonic/gin"

	"tradejournal/internal/service"
)

type PlanHandler struct {
	Plan *service.PlanService
}

func (h *PlanHandler) Register(r gin.IRouter) {
	r.GET("/rules-goals", h.get)
}

// @Summary Rules and goals in one read
// @Description Seeds the default rule set for a user without rules.
// @Tags rules
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/rules-goals [get]
func (h *PlanHandler) get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	plan, err := h.Plan.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, plan, map[string]any{
		"rulesCount": len(plan.Rules),
		"goalsCount": len(plan.Goals),
	})
}
