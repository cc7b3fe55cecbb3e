package models

import (
	"time"

	"gorm.io/datatypes"
)

// SystemSetting stores runtime switches such as "feature.stats_stream".
type SystemSetting struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Key string `gorm:"type:varchar(120);not null;uniqueIndex"`

	// JSON value, true/false for switches.
	Value datatypes.JSON `gorm:"not null"`

	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime;index"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}
