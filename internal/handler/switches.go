package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tradejournal/internal/service"
)

// SwitchesHandler exposes the feature switches that gate stats processing.
type SwitchesHandler struct {
	Settings *service.SystemSettingsService
}

func (h *SwitchesHandler) Register(r gin.IRouter) {
	g := r.Group("/system-settings/switches")
	g.GET("", h.list)
	g.GET("/:name", h.get)
	g.PUT("/:name", h.put)
}

func (h *SwitchesHandler) list(c *gin.Context) {
	items, err := h.Settings.Switches(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]gin.H, 0, len(items))
	for key, enabled := range items {
		out = append(out, gin.H{
			"name":    strings.TrimPrefix(key, "feature."),
			"key":     key,
			"enabled": enabled,
		})
	}
	Ok(c, out, nil)
}

func (h *SwitchesHandler) get(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		Error(c, http.StatusBadRequest, CodeValidation, "invalid switch name", nil)
		return
	}
	key := "feature." + name
	Ok(c, gin.H{
		"name":    name,
		"key":     key,
		"enabled": h.Settings.IsEnabled(c.Request.Context(), key, false),
	}, nil)
}

type putSwitchRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *SwitchesHandler) put(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		Error(c, http.StatusBadRequest, CodeValidation, "invalid switch name", nil)
		return
	}
	var req putSwitchRequest
	if !bindJSON(c, &req) {
		return
	}
	key := "feature." + name
	if err := h.Settings.SetEnabled(c.Request.Context(), key, req.Enabled); err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"name": name, "key": key, "enabled": req.Enabled}, nil)
}
