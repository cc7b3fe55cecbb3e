package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tradejournal/internal/auth"
	"tradejournal/internal/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "handler.logger"
)

// RequestLogger tags each request with an id, stores a scoped logger and logs the outcome.
func RequestLogger(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Set(loggerKey, logger.ForRequest(base, id, ""))

		c.Next()

		userID, _ := auth.UserID(c)
		log := logger.ForRequest(base, id, userID)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn("request completed", fields...)
			return
		}
		log.Debug("request completed", fields...)
	}
}

func requestLogger(c *gin.Context) *zap.Logger {
	base := zap.NewNop()
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			base = l
		}
	}
	if userID, ok := auth.UserID(c); ok {
		return base.With(zap.String("user_id", userID))
	}
	return base
}

func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,Idempotency-Key,X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// currentUser returns the authenticated user or writes a 401.
func currentUser(c *gin.Context) (string, bool) {
	id, ok := auth.UserID(c)
	if !ok {
		Error(c, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized", nil)
	}
	return id, ok
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		Error(c, http.StatusBadRequest, CodeValidation, "Invalid JSON body", nil)
		return false
	}
	return true
}
