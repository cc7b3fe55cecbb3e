package gormrepository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

func (s *Store) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	if s == nil || s.db == nil {
		return nil, repository.ErrNotFound
	}
	var item models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, fn func(*models.UserProfile) error) (*models.UserProfile, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not initialized")
	}
	var item models.UserProfile
	err := s.InTx(ctx, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = models.NewUserProfile(userID)
		case err != nil:
			return err
		}
		if err := fn(&item); err != nil {
			return err
		}
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}
