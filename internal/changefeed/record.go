// Package changefeed carries trade mutations from the trades outbox to the
// stats processor, either in-process or through a Redis stream.
package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tradejournal/internal/models"
)

// Record is one trade mutation with its before and after images.
type Record struct {
	EventID   string             `json:"eventId"`
	EventName models.ChangeEvent `json:"eventName"`
	UserID    string             `json:"userId,omitempty"`
	TradeID   string             `json:"tradeId,omitempty"`
	OldImage  *models.TradeImage `json:"oldImage,omitempty"`
	NewImage  *models.TradeImage `json:"newImage,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Owner resolves the user a record belongs to, preferring the images over the envelope field.
func (r Record) Owner() string {
	if r.NewImage != nil && r.NewImage.UserID != "" {
		return r.NewImage.UserID
	}
	if r.OldImage != nil && r.OldImage.UserID != "" {
		return r.OldImage.UserID
	}
	return r.UserID
}

// BatchHandler applies a batch and returns the event ids that must be redelivered.
type BatchHandler interface {
	HandleBatch(ctx context.Context, records []Record) []string
}

// Publisher hands records to the next hop and returns the event ids it could not deliver.
type Publisher interface {
	Publish(ctx context.Context, records []Record) []string
}

// ErrMissingEventID rejects records that could not be acknowledged or retried individually.
var ErrMissingEventID = errors.New("change record without event id")

func FromChange(ch models.TradeChange) (Record, error) {
	if ch.EventID == "" {
		return Record{}, fmt.Errorf("change %d: %w", ch.ID, ErrMissingEventID)
	}
	rec := Record{
		EventID:   ch.EventID,
		EventName: ch.EventName,
		UserID:    ch.UserID,
		TradeID:   ch.TradeID,
		CreatedAt: ch.CreatedAt,
	}
	var err error
	if rec.OldImage, err = decodeImage(ch.OldImage); err != nil {
		return rec, fmt.Errorf("change %s old image: %w", ch.EventID, err)
	}
	if rec.NewImage, err = decodeImage(ch.NewImage); err != nil {
		return rec, fmt.Errorf("change %s new image: %w", ch.EventID, err)
	}
	return rec, nil
}

func decodeImage(raw []byte) (*models.TradeImage, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var img models.TradeImage
	if err := json.Unmarshal(raw, &img); err != nil {
		return nil, err
	}
	return &img, nil
}
