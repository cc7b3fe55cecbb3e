package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"tradejournal/internal/repository"
	"tradejournal/internal/service"
)

type GoalsHandler struct {
	Goals *service.GoalService
}

func (h *GoalsHandler) Register(r gin.IRouter) {
	g := r.Group("/goals")
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:goal_id", h.update)
	g.DELETE("/:goal_id", h.delete)
}

// @Summary List goals
// @Tags goals
// @Produce json
// @Param accountId query string false "account id"
// @Param period query string false "weekly or monthly"
// @Success 200 {object} map[string]any
// @Router /api/v1/goals [get]
func (h *GoalsHandler) list(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.Goals.List(c.Request.Context(), repository.ListGoalsParams{
		UserID:    userID,
		AccountID: strings.TrimSpace(c.Query("accountId")),
		Period:    strings.TrimSpace(c.Query("period")),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"goals": items}, nil)
}

// @Summary Create a goal
// @Tags goals
// @Accept json
// @Produce json
// @Success 201 {object} map[string]any
// @Router /api/v1/goals [post]
func (h *GoalsHandler) create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in service.GoalInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.Goals.Create(c.Request.Context(), userID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	Created(c, gin.H{"goal": item}, nil)
}

// @Summary Update a goal
// @Tags goals
// @Accept json
// @Produce json
// @Param goal_id path string true "goal id"
// @Success 200 {object} map[string]any
// @Router /api/v1/goals/{goal_id} [put]
func (h *GoalsHandler) update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in service.GoalInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.Goals.Update(c.Request.Context(), userID, c.Param("goal_id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"goal": item}, nil)
}

// @Summary Delete a goal
// @Tags goals
// @Param goal_id path string true "goal id"
// @Success 200 {object} map[string]any
// @Router /api/v1/goals/{goal_id} [delete]
func (h *GoalsHandler) delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id := c.Param("goal_id")
	if err := h.Goals.Delete(c.Request.Context(), userID, id); err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"goalId": id, "deleted": true}, nil)
}
