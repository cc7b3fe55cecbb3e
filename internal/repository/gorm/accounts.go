package gormrepository

import (
	"context"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Account
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at asc").Find(&items).Error
	return items, err
}

func (s *Store) GetAccount(ctx context.Context, userID, accountID string) (*models.Account, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var item models.Account
	if err := s.db.WithContext(ctx).Where("user_id = ? AND account_id = ?", userID, accountID).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) CreateAccount(ctx context.Context, item *models.Account) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return translate(s.db.WithContext(ctx).Create(item).Error)
}

func (s *Store) UpdateAccount(ctx context.Context, item *models.Account) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("user_id = ? AND account_id = ?", item.UserID, item.AccountID).
		Select("name", "broker", "type", "status", "balance", "initial_balance", "currency", "notes", "updated_at").
		Updates(item)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateAccountStatus(ctx context.Context, userID, accountID, status string) (*models.Account, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	res := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("user_id = ? AND account_id = ?", userID, accountID).
		Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	return s.GetAccount(ctx, userID, accountID)
}

func (s *Store) DeleteAccount(ctx context.Context, userID, accountID string) error {
	if s == nil || s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).Where("user_id = ? AND account_id = ?", userID, accountID).Delete(&models.Account{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
