package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradejournal/internal/repository"
	"tradejournal/internal/service"
	"tradejournal/internal/vision"
)

const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeUpstream           = "UPSTREAM_ERROR"
	CodeUpstreamTimeout    = "UPSTREAM_TIMEOUT"
	CodeParse              = "PARSE_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type apiResponse struct {
	Data  any            `json:"data"`
	Error *apiError      `json:"error"`
	Meta  map[string]any `json:"meta"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{Data: data, Meta: meta})
}

func Created(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusCreated, apiResponse{Data: data, Meta: meta})
}

func Error(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, apiResponse{
		Error: &apiError{Code: code, Message: message, Details: details},
	})
}

// writeError maps service and repository errors onto status codes.
// Anything unrecognized is logged and reported as a 500 without detail.
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	var upstream *vision.UpstreamError
	switch {
	case errors.As(err, &verr):
		var details any
		if len(verr.Details) > 0 {
			details = verr.Details
		}
		Error(c, http.StatusBadRequest, CodeValidation, verr.Message, details)
	case errors.Is(err, repository.ErrInvalidCursor):
		Error(c, http.StatusBadRequest, CodeValidation, "Invalid nextToken", nil)
	case errors.Is(err, repository.ErrNotFound):
		Error(c, http.StatusNotFound, CodeNotFound, "Not found", nil)
	case errors.Is(err, repository.ErrConflict):
		Error(c, http.StatusConflict, CodeConflict, "Conflict", nil)
	case errors.Is(err, service.ErrImageTooLarge):
		Error(c, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Image too large", nil)
	case errors.Is(err, vision.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		Error(c, http.StatusGatewayTimeout, CodeUpstreamTimeout, "Extraction timed out", nil)
	case errors.As(err, &upstream):
		Error(c, http.StatusBadGateway, CodeUpstream, "Extraction service error", nil)
	case errors.Is(err, vision.ErrParse):
		Error(c, http.StatusInternalServerError, CodeParse, "Could not parse extraction output", nil)
	case errors.Is(err, vision.ErrNotConfigured), errors.Is(err, service.ErrStorageUnavailable):
		Error(c, http.StatusServiceUnavailable, CodeServiceUnavailable, err.Error(), nil)
	default:
		requestLogger(c).Error("request failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, CodeInternal, "Internal error", nil)
	}
}
