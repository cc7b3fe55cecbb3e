package handler

import (
	"github.com/gin-gonic/gin"

	"tradejournal/internal/service"
)

type AccountsHandler struct {
	Accounts *service.AccountService
}

func (h *AccountsHandler) Register(r gin.IRouter) {
	g := r.Group("/accounts")
	g.GET("", h.list)
	g.POST("", h.create)
	g.PUT("/:account_id", h.update)
	g.PATCH("/:account_id/status", h.updateStatus)
	g.DELETE("/:account_id", h.delete)
}

// @Summary List trading accounts
// @Tags accounts
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/accounts [get]
func (h *AccountsHandler) list(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.Accounts.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"accounts": items}, nil)
}

// @Summary Create a trading account
// @Tags accounts
// @Accept json
// @Produce json
// @Success 201 {object} map[string]any
// @Router /api/v1/accounts [post]
func (h *AccountsHandler) create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in service.AccountInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.Accounts.Create(c.Request.Context(), userID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	Created(c, gin.H{"account": item}, nil)
}

// @Summary Update a trading account
// @Tags accounts
// @Accept json
// @Produce json
// @Param account_id path string true "account id"
// @Success 200 {object} map[string]any
// @Router /api/v1/accounts/{account_id} [put]
func (h *AccountsHandler) update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in service.AccountInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.Accounts.Update(c.Request.Context(), userID, c.Param("account_id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"account": item}, nil)
}

type accountStatusRequest struct {
	Status string `json:"status"`
}

// @Summary Change the status of a trading account
// @Tags accounts
// @Accept json
// @Produce json
// @Param account_id path string true "account id"
// @Success 200 {object} map[string]any
// @Router /api/v1/accounts/{account_id}/status [patch]
func (h *AccountsHandler) updateStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req accountStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.Accounts.UpdateStatus(c.Request.Context(), userID, c.Param("account_id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"account": item}, nil)
}

// @Summary Delete a trading account
// @Tags accounts
// @Param account_id path string true "account id"
// @Success 200 {object} map[string]any
// @Router /api/v1/accounts/{account_id} [delete]
func (h *AccountsHandler) delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id := c.Param("account_id")
	if err := h.Accounts.Delete(c.Request.Context(), userID, id); err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"accountId": id, "deleted": true}, nil)
}
