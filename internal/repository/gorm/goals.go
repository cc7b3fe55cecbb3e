package gormrepository

import (
	"context"
	"strings"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

func (s *Store) ListGoals(ctx context.Context, params repository.ListGoalsParams) ([]models.Goal, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Where("user_id = ?", params.UserID)
	if v := strings.TrimSpace(params.AccountID); v != "" && !strings.EqualFold(v, "ALL") {
		query = query.Where("account_id IN ?", []string{v, models.AllAccounts})
	}
	if v := strings.TrimSpace(params.Period); v != "" {
		query = query.Where("period = ?", v)
	}
	var items []models.Goal
	err := query.Order("created_at asc").Find(&items).Error
	return items, err
}

func (s *Store) GetGoal(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var item models.Goal
	if err := s.db.WithContext(ctx).Where("user_id = ? AND goal_id = ?", userID, goalID).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) CreateGoal(ctx context.Context, item *models.Goal) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return translate(s.db.WithContext(ctx).Create(item).Error)
}

func (s *Store) UpdateGoal(ctx context.Context, item *models.Goal) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Goal{}).
		Where("user_id = ? AND goal_id = ?", item.UserID, item.GoalID).
		Select("title", "description", "goal_type", "target", "period", "account_id", "updated_at").
		Updates(item)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, goalID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).Where("user_id = ? AND goal_id = ?", userID, goalID).Delete(&models.Goal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
