package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

func (s *Store) UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Key) == "" {
		return nil
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_at"}),
	}).Create(item).Error
}

// GetSystemSettingByKey returns nil without error when the key is unset.
func (s *Store) GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}
	var item models.SystemSetting
	err := s.db.WithContext(ctx).Model(&models.SystemSetting{}).Where("key = ?", key).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSystemSettings(ctx context.Context, params repository.ListSystemSettingsParams) ([]models.SystemSetting, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.SystemSetting{})
	if params.Prefix != nil && strings.TrimSpace(*params.Prefix) != "" {
		query = query.Where("key LIKE ?", strings.TrimSpace(*params.Prefix)+"%")
	}
	asc := true
	if params.Asc != nil {
		asc = *params.Asc
	}
	query = applyOrder(query, params.OrderBy, &asc, "key")
	var items []models.SystemSetting
	err := query.Limit(normalizeLimit(params.Limit, 500)).Offset(normalizeOffset(params.Offset)).Find(&items).Error
	return items, err
}
