package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
	"tradejournal/internal/service"
)

type TradesHandler struct {
	Trades  *service.TradeService
	Extract *service.ExtractService
	Images  service.ImageStore
}

func (h *TradesHandler) Register(r gin.IRouter) {
	g := r.Group("/trades")
	g.POST("", h.create)
	g.GET("", h.list)
	g.GET("/export", h.export)
	g.POST("/bulk-delete", h.bulkDelete)
	g.POST("/extract", h.extract)
	g.GET("/:trade_id", h.get)
	g.PUT("/:trade_id", h.update)
	g.DELETE("/:trade_id", h.delete)
}

type imageView struct {
	models.Attachment
	URL string `json:"url,omitempty"`
}

type tradeView struct {
	models.Trade
	Images []imageView `json:"images"`
}

// views attaches short-lived download URLs to each trade's images.
func (h *TradesHandler) views(items []models.Trade) []tradeView {
	out := make([]tradeView, 0, len(items))
	for _, t := range items {
		v := tradeView{Trade: t, Images: []imageView{}}
		var atts []models.Attachment
		if len(t.Images) > 0 {
			_ = json.Unmarshal(t.Images, &atts)
		}
		for _, a := range atts {
			iv := imageView{Attachment: a}
			if h.Images != nil && h.Images.Enabled() && a.Key != "" {
				if url, err := h.Images.PresignGet(a.Key); err == nil {
					iv.URL = url
				}
			}
			v.Images = append(v.Images, iv)
		}
		out = append(out, v)
	}
	return out
}

type createTradeRequest struct {
	service.TradeInput
	Items []service.TradeInput `json:"items"`
}

// @Summary Create a trade, or several with items[]
// @Tags trades
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "idempotency key"
// @Success 201 {object} map[string]any
// @Success 200 {object} map[string]any "idempotent repeat"
// @Failure 400 {object} map[string]any
// @Router /api/v1/trades [post]
func (h *TradesHandler) create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req createTradeRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if req.Items != nil {
		res, err := h.Trades.CreateBulk(ctx, userID, req.Items)
		if err != nil {
			writeError(c, err)
			return
		}
		Created(c, gin.H{
			"created": res.Created,
			"skipped": res.Skipped,
			"errors":  res.Errors,
			"items":   h.views(res.Items),
		}, nil)
		return
	}

	res, err := h.Trades.Create(ctx, userID, req.TradeInput, c.GetHeader("Idempotency-Key"))
	if err != nil {
		writeError(c, err)
		return
	}
	views := h.views(res.Trades)
	var data any = gin.H{"trade": views[0]}
	if len(views) > 1 {
		data = gin.H{"trades": views, "count": len(views)}
	}
	if res.Replayed {
		requestLogger(c).Info("idempotent create repeat", zap.String("trade_id", res.Trades[0].TradeID))
		Ok(c, data, gin.H{"idempotentReplay": true})
		return
	}
	Created(c, data, nil)
}

// @Summary List trades, newest first
// @Tags trades
// @Produce json
// @Param accountId query string false "account id, ALL for every account"
// @Param startDate query string false "RFC3339 or YYYY-MM-DD"
// @Param endDate query string false "RFC3339 or YYYY-MM-DD"
// @Param limit query int false "1..100, default 50"
// @Param nextToken query string false "cursor from the previous page"
// @Success 200 {object} map[string]any
// @Router /api/v1/trades [get]
func (h *TradesHandler) list(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	params := repository.ListTradesParams{
		UserID:    userID,
		AccountID: strings.TrimSpace(c.Query("accountId")),
		Limit:     intQuery(c, "limit", 50),
		Cursor:    strings.TrimSpace(c.Query("nextToken")),
	}
	var err error
	if params.StartDate, err = dateQuery(c, "startDate", false); err != nil {
		Error(c, http.StatusBadRequest, CodeValidation, "Invalid startDate", nil)
		return
	}
	if params.EndDate, err = dateQuery(c, "endDate", true); err != nil {
		Error(c, http.StatusBadRequest, CodeValidation, "Invalid endDate", nil)
		return
	}
	page, err := h.Trades.List(c.Request.Context(), params)
	if err != nil {
		writeError(c, err)
		return
	}
	var next any
	if page.NextCursor != "" {
		next = page.NextCursor
	}
	Ok(c, gin.H{"trades": h.views(page.Items), "nextToken": next}, nil)
}

// @Summary Get a trade
// @Tags trades
// @Produce json
// @Param trade_id path string true "trade id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/v1/trades/{trade_id} [get]
func (h *TradesHandler) get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	item, err := h.Trades.Get(c.Request.Context(), userID, c.Param("trade_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"trade": h.views([]models.Trade{*item})[0]}, nil)
}

// @Summary Update a trade
// @Tags trades
// @Accept json
// @Produce json
// @Param trade_id path string true "trade id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/v1/trades/{trade_id} [put]
func (h *TradesHandler) update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var in service.TradeInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.Trades.Update(c.Request.Context(), userID, c.Param("trade_id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"trade": h.views([]models.Trade{*item})[0]}, nil)
}

// @Summary Delete a trade and its images
// @Tags trades
// @Param trade_id path string true "trade id"
// @Success 200 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/v1/trades/{trade_id} [delete]
func (h *TradesHandler) delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	tradeID := c.Param("trade_id")
	if err := h.Trades.Delete(c.Request.Context(), userID, tradeID); err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"tradeId": tradeID, "deleted": true}, nil)
}

type bulkDeleteRequest struct {
	TradeIDs []string `json:"tradeIds"`
}

// @Summary Delete up to 50 trades
// @Tags trades
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/v1/trades/bulk-delete [post]
func (h *TradesHandler) bulkDelete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req bulkDeleteRequest
	if !bindJSON(c, &req) {
		return
	}
	deleted, err := h.Trades.BulkDelete(c.Request.Context(), userID, req.TradeIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{
		"deletedRequested": len(req.TradeIDs),
		"deleted":          deleted,
	}, nil)
}

// @Summary Export trades as CSV or JSON
// @Tags trades
// @Produce text/csv
// @Param accountId query string false "account id"
// @Param format query string false "csv (default) or json"
// @Success 200 {string} string
// @Router /api/v1/trades/export [get]
func (h *TradesHandler) export(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	out, err := h.Trades.Export(c.Request.Context(), userID, strings.TrimSpace(c.Query("accountId")), c.Query("format"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
	c.Data(http.StatusOK, out.ContentType, out.Body)
}

type extractRequest struct {
	Image string `json:"image"`
}

// @Summary Extract trade rows from a broker screenshot
// @Tags trades
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 413 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Failure 504 {object} map[string]any
// @Router /api/v1/trades/extract [post]
func (h *TradesHandler) extract(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	if h.Extract == nil {
		Error(c, http.StatusServiceUnavailable, CodeServiceUnavailable, "extraction unavailable", nil)
		return
	}
	var req extractRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.Extract.Extract(c.Request.Context(), userID, req.Image)
	if err != nil {
		writeError(c, err)
		return
	}
	Ok(c, gin.H{"items": res.Items}, gin.H{"elapsedMs": res.ElapsedMs})
}

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

// dateQuery accepts RFC3339 or a bare date. A bare end date covers the whole day.
func dateQuery(c *gin.Context, key string, endOfDay bool) (*time.Time, error) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", val)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
