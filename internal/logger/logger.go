package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tradejournal/internal/config"
)

func New(cfg config.LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Development,
		Encoding:          encoding(cfg.Encoding),
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
		Sampling:          nil,
		EncoderConfig:     zap.NewProductionEncoderConfig(),
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	zc.EncoderConfig.TimeKey = "time"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if zc.Encoding == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	if cfg.Sampling {
		zc.Sampling = &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		}
	}

	return zc.Build()
}

func encoding(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "json":
		return "json"
	default:
		return "console"
	}
}

// ForRequest returns a child logger tagged with the request and user identifiers.
// Empty values are omitted.
func ForRequest(base *zap.Logger, requestID, userID string) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	fields := make([]zap.Field, 0, 2)
	if requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
