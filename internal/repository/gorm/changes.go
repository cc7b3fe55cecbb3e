package gormrepository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"tradejournal/internal/models"
)

func (s *Store) ListPendingChanges(ctx context.Context, afterID uint64, limit int) ([]models.TradeChange, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 100)
	var items []models.TradeChange
	err := s.db.WithContext(ctx).
		Where("published_at IS NULL AND parked_at IS NULL AND id > ?", afterID).
		Order("id asc").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (s *Store) ListChangesByUser(ctx context.Context, userID string, since time.Time, limit int) ([]models.TradeChange, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 500)
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since.UTC())
	}
	var items []models.TradeChange
	err := query.Order("id asc").Limit(limit).Find(&items).Error
	return items, err
}

func (s *Store) MarkChangesPublished(ctx context.Context, ids []uint64, at time.Time) error {
	if s == nil || s.db == nil || len(ids) == 0 {
		return nil
	}
	if at.IsZero() {
		at = time.Now()
	}
	return s.db.WithContext(ctx).
		Model(&models.TradeChange{}).
		Where("id IN ?", ids).
		Update("published_at", at.UTC()).Error
}

func (s *Store) IncrementChangeAttempts(ctx context.Context, ids []uint64) error {
	if s == nil || s.db == nil || len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.TradeChange{}).
		Where("id IN ?", ids).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

func (s *Store) ParkChanges(ctx context.Context, ids []uint64, at time.Time) error {
	if s == nil || s.db == nil || len(ids) == 0 {
		return nil
	}
	if at.IsZero() {
		at = time.Now()
	}
	return s.db.WithContext(ctx).
		Model(&models.TradeChange{}).
		Where("id IN ?", ids).
		Update("parked_at", at.UTC()).Error
}
