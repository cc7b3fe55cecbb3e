package gormrepository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

func (s *Store) ListRules(ctx context.Context, userID string) ([]models.Rule, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Rule
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at asc").Find(&items).Error
	return items, err
}

func (s *Store) GetRule(ctx context.Context, userID, ruleID string) (*models.Rule, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var item models.Rule
	if err := s.db.WithContext(ctx).Where("user_id = ? AND rule_id = ?", userID, ruleID).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) CreateRule(ctx context.Context, item *models.Rule) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return translate(s.db.WithContext(ctx).Create(item).Error)
}

func (s *Store) UpdateRule(ctx context.Context, item *models.Rule) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Rule{}).
		Where("user_id = ? AND rule_id = ?", item.UserID, item.RuleID).
		Select("rule", "completed", "is_active", "updated_at").
		Updates(item)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ToggleRule flips the completed flag and returns the updated rule.
func (s *Store) ToggleRule(ctx context.Context, userID, ruleID string) (*models.Rule, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var item models.Rule
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND rule_id = ?", userID, ruleID).
			First(&item).Error; err != nil {
			return err
		}
		item.Completed = !item.Completed
		return tx.Model(&models.Rule{}).
			Where("user_id = ? AND rule_id = ?", userID, ruleID).
			Update("completed", item.Completed).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) DeleteRule(ctx context.Context, userID, ruleID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).Where("user_id = ? AND rule_id = ?", userID, ruleID).Delete(&models.Rule{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
