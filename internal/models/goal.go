package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var GoalPeriods = []string{"weekly", "monthly"}

type Goal struct {
	UserID string `gorm:"type:varchar(64);primaryKey" json:"userId"`
	GoalID string `gorm:"type:varchar(64);primaryKey" json:"goalId"`

	Title       string          `gorm:"type:varchar(200);not null" json:"title"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	GoalType    string          `gorm:"type:varchar(30);not null" json:"goalType"`
	Target      decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"target"`
	Period      string          `gorm:"type:varchar(10);not null" json:"period"`
	AccountID   string          `gorm:"type:varchar(64);not null;default:'-1'" json:"accountId"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Goal) TableName() string {
	return "goals"
}
