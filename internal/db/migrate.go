package db

import (
	"tradejournal/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Trade{},
		&models.TradeStats{},
		&models.TradeChange{},
		&models.Account{},
		&models.Goal{},
		&models.Rule{},
		&models.SystemSetting{},
		&models.UserProfile{},
	)
}
