package handler

import (
	"github.com/gin-gonic/gin"

	"tradejournal/internal/service"
)

type UploadsHandler struct {
	Uploads *service.UploadService
}

func (h *UploadsHandler) Register(r gin.IRouter) {
	r.POST("/uploads", h.create)
}

type uploadRequest struct {
	TradeID     string `json:"tradeId"`
	ContentType string `json:"contentType"`
}

// @Summary Presigned URL for uploading a trade screenshot
// @Tags uploads
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/v1/uploads [post]
func (h *UploadsHandler) create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req uploadRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.Uploads.CreateUploadURL(c.Request.Context(), userID, req.TradeID, req.ContentType)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, out, nil)
}
