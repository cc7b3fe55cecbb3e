package service

import (
	"context"
	"strings"
	"time"

	"tradejournal/internal/repository"
	"tradejournal/internal/storage"
)

type UploadURL struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadService signs direct-to-bucket uploads for screenshots of an existing trade.
type UploadService struct {
	Trades repository.TradeReader
	Images ImageStore
}

func (s *UploadService) CreateUploadURL(ctx context.Context, userID, tradeID, contentType string) (UploadURL, error) {
	tradeID = strings.TrimSpace(tradeID)
	if tradeID == "" {
		return UploadURL{}, invalid("tradeId required")
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "" {
		contentType = "image/jpeg"
	}
	if !strings.HasPrefix(contentType, "image/") {
		return UploadURL{}, invalid("invalid contentType")
	}
	if s.Images == nil || !s.Images.Enabled() {
		return UploadURL{}, ErrStorageUnavailable
	}
	if _, err := s.Trades.GetTrade(ctx, userID, tradeID); err != nil {
		return UploadURL{}, err
	}
	key := storage.ImageKey(userID, tradeID, contentType)
	url, expires, err := s.Images.PresignPut(key, contentType)
	if err != nil {
		return UploadURL{}, err
	}
	return UploadURL{URL: url, Key: key, ExpiresAt: expires}, nil
}
