package handler

import (
	"github.com/gin-gonic/gin"

	"tradejournal/internal/service"
)

type RulesHandler struct {
	Rules *service.RuleService
}

func (h *RulesHandler) Register(r gin.IRouter) {
	g := r.Group("/rules")
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:rule_id", h.update)
	g.PATCH("/:rule_id/toggle", h.toggle)
	g.DELETE("/:rule_id", h.delete)
}

// @Summary List trading rules
// @Tags rules
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/rules [get]
func (h *RulesHandler) list(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.Rules.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"rules": items}, nil)
}

// @Summary Create a trading rule
// @Tags rules
// @Accept json
// @Produce json
// @Success 201 {object} map[string]any
// @Router /api/v1/rules [post]
func (h *RulesHandler) create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in service.RuleInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.Rules.Create(c.Request.Context(), userID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	Created(c, gin.H{"rule": item}, nil)
}

// @Summary Update a trading rule
// @Tags rules
// @Accept json
// @Produce json
// @Param rule_id path string true "rule id"
// @Success 200 {object} map[string]any
// @Router /api/v1/rules/{rule_id} [put]
func (h *RulesHandler) update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in service.RuleInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.Rules.Update(c.Request.Context(), userID, c.Param("rule_id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"rule": item}, nil)
}

// @Summary Flip the completed flag of a rule
// @Tags rules
// @Produce json
// @Param rule_id path string true "rule id"
// @Success 200 {object} map[string]any
// @Router /api/v1/rules/{rule_id}/toggle [patch]
func (h *RulesHandler) toggle(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	item, err := h.Rules.Toggle(c.Request.Context(), userID, c.Param("rule_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"rule": item}, nil)
}

// @Summary Delete a trading rule
// @Tags rules
// @Param rule_id path string true "rule id"
// @Success 200 {object} map[string]any
// @Router /api/v1/rules/{rule_id} [delete]
func (h *RulesHandler) delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id := c.Param("rule_id")
	if err := h.Rules.Delete(c.Request.Context(), userID, id); err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"ruleId": id, "deleted": true}, nil)
}
