package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
	"tradejournal/internal/stats"
)

func DefaultFeatureSwitches() map[string]bool {
	return map[string]bool{
		stats.FeatureStream:     true,
		stats.FeatureRebuildJob: true,
	}
}

// SystemSettingsService reads and writes feature switches stored as JSON booleans.
type SystemSettingsService struct {
	Repo repository.SettingsRepository
}

// EnsureDefaultSwitches inserts missing switches. Existing values are left alone,
// except that a switch whose default is on is turned back on.
func (s *SystemSettingsService) EnsureDefaultSwitches(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	now := time.Now().UTC()
	for key, enabled := range DefaultFeatureSwitches() {
		existing, err := s.Repo.GetSystemSettingByKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			if enabled {
				var current bool
				if err := json.Unmarshal(existing.Value, &current); err == nil && !current {
					existing.Value = datatypes.JSON("true")
					existing.UpdatedAt = now
					if err := s.Repo.UpsertSystemSetting(ctx, existing); err != nil {
						return err
					}
				}
			}
			continue
		}
		raw, _ := json.Marshal(enabled)
		item := &models.SystemSetting{
			Key:         key,
			Value:       datatypes.JSON(raw),
			Description: "feature switch",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.Repo.UpsertSystemSetting(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (s *SystemSettingsService) IsEnabled(ctx context.Context, key string, fallback bool) bool {
	if s == nil || s.Repo == nil {
		return fallback
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	item, err := s.Repo.GetSystemSettingByKey(ctx, key)
	if err != nil || item == nil || len(item.Value) == 0 {
		return fallback
	}
	var enabled bool
	if err := json.Unmarshal(item.Value, &enabled); err != nil {
		return fallback
	}
	return enabled
}

func (s *SystemSettingsService) SetEnabled(ctx context.Context, key string, enabled bool) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	raw, _ := json.Marshal(enabled)
	item := &models.SystemSetting{
		Key:         key,
		Value:       datatypes.JSON(raw),
		Description: "feature switch",
		UpdatedAt:   time.Now().UTC(),
	}
	return s.Repo.UpsertSystemSetting(ctx, item)
}

// Switches lists every feature switch with its current value.
func (s *SystemSettingsService) Switches(ctx context.Context) (map[string]bool, error) {
	out := map[string]bool{}
	if s == nil || s.Repo == nil {
		return out, nil
	}
	prefix := "feature."
	asc := true
	items, err := s.Repo.ListSystemSettings(ctx, repository.ListSystemSettingsParams{
		Prefix:  &prefix,
		Limit:   200,
		OrderBy: "key",
		Asc:     &asc,
	})
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		var enabled bool
		if err := json.Unmarshal(it.Value, &enabled); err != nil {
			continue
		}
		out[it.Key] = enabled
	}
	return out, nil
}
