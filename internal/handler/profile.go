package handler

import (
	"github.com/gin-gonic/gin"

	"tradejournal/internal/auth"
	"tradejournal/internal/service"
)

type ProfileHandler struct {
	Profiles *service.ProfileService
}

func (h *ProfileHandler) Register(r gin.IRouter) {
	r.GET("/profile", h.get)
	r.PUT("/profile/preferences", h.updatePreferences)
	r.GET("/saved-options", h.savedOptions)
	r.POST("/saved-options/:category", h.addSavedOption)
}

// @Summary Current user and preferences
// @Tags profile
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/profile [get]
func (h *ProfileHandler) get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	claims, _ := auth.ClaimsFromContext(c.Request.Context())
	p, err := h.Profiles.Get(c.Request.Context(), userID, claims.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"user": p}, nil)
}

// @Summary Update display and notification preferences
// @Tags profile
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/profile/preferences [put]
func (h *ProfileHandler) updatePreferences(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in service.PreferencesInput
	if !bindJSON(c, &in) {
		return
	}
	prefs, err := h.Profiles.UpdatePreferences(c.Request.Context(), userID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"preferences": prefs}, nil)
}

// @Summary Saved pick-list options
// @Tags profile
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/saved-options [get]
func (h *ProfileHandler) savedOptions(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	opts, err := h.Profiles.SavedOptions(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"options": opts}, nil)
}

type savedOptionRequest struct {
	Value string `json:"value"`
}

// @Summary Add a saved option to a category
// @Tags profile
// @Accept json
// @Produce json
// @Param category path string true "symbols, strategies, sessions, marketConditions, newsEvents, mistakes, lessons or timeframes"
// @Success 200 {object} map[string]any
// @Router /api/v1/saved-options/{category} [post]
func (h *ProfileHandler) addSavedOption(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in savedOptionRequest
	if !bindJSON(c, &in) {
		return
	}
	opts, err := h.Profiles.AddSavedOption(c.Request.Context(), userID, c.Param("category"), in.Value)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"options": opts}, nil)
}
