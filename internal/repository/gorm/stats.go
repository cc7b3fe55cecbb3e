package gormrepository

import (
	"context"
	"strings"

	"gorm.io/gorm/clause"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

func (s *Store) GetStats(ctx context.Context, userID string) (*models.TradeStats, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var item models.TradeStats
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// PutStats replaces the user's aggregate row. No column is merged with the previous value.
func (s *Store) PutStats(ctx context.Context, item *models.TradeStats) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.UserID) == "" {
		return repository.ErrNotFound
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(item).Error
}

func (s *Store) ListStatsUserIDs(ctx context.Context, cursor string, limit int) ([]string, string, error) {
	if s == nil || s.db == nil {
		return nil, "", nil
	}
	after, err := repository.DecodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}
	limit = normalizeLimit(limit, 500)
	query := s.db.WithContext(ctx).Model(&models.TradeStats{})
	if after.UserID != "" {
		query = query.Where("user_id > ?", after.UserID)
	}
	var ids []string
	if err := query.Order("user_id asc").Limit(limit+1).Pluck("user_id", &ids).Error; err != nil {
		return nil, "", err
	}
	if len(ids) <= limit {
		return ids, "", nil
	}
	ids = ids[:limit]
	return ids, repository.EncodeCursor(repository.Cursor{UserID: ids[len(ids)-1]}), nil
}
