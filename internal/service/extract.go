package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"tradejournal/internal/vision"
)

const defaultMaxImageBase64 = 4_000_000

var dataURIPrefix = regexp.MustCompile(`^data:(image/[a-zA-Z0-9+.-]+);base64,`)

// Extractor reads trade rows out of a base64 screenshot.
type Extractor interface {
	Extract(ctx context.Context, mediaType, imageBase64 string) ([]vision.ExtractedTrade, error)
}

type ExtractResult struct {
	Items     []vision.ExtractedTrade `json:"items"`
	ElapsedMs int64                   `json:"elapsedMs"`
}

type ExtractService struct {
	Extractor      Extractor
	MaxImageBase64 int
	Logger         *zap.Logger
}

// Extract accepts raw base64 or a data URI. Images above MaxImageBase64 characters are rejected.
func (s *ExtractService) Extract(ctx context.Context, userID, image string) (ExtractResult, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return ExtractResult{}, invalid("image required")
	}
	mediaType, payload := splitDataURI(image)
	limit := s.MaxImageBase64
	if limit <= 0 {
		limit = defaultMaxImageBase64
	}
	if len(payload) > limit {
		return ExtractResult{}, ErrImageTooLarge
	}

	start := time.Now()
	items, err := s.Extractor.Extract(ctx, mediaType, payload)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("trade extraction failed",
				zap.String("user_id", userID),
				zap.Int64("elapsed_ms", elapsed),
				zap.Error(err),
			)
		}
		return ExtractResult{}, err
	}
	if items == nil {
		items = []vision.ExtractedTrade{}
	}
	if s.Logger != nil {
		s.Logger.Info("trades extracted",
			zap.String("user_id", userID),
			zap.Int("count", len(items)),
			zap.Int64("elapsed_ms", elapsed),
		)
	}
	return ExtractResult{Items: items, ElapsedMs: elapsed}, nil
}

func splitDataURI(image string) (string, string) {
	m := dataURIPrefix.FindStringSubmatch(image)
	if m == nil {
		return "image/png", image
	}
	mediaType := strings.ToLower(m[1])
	if mediaType == "image/jpg" {
		mediaType = "image/jpeg"
	}
	return mediaType, image[len(m[0]):]
}
