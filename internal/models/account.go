package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	AccountTypes    = []string{"prop_challenge", "prop_funded", "personal", "demo"}
	AccountStatuses = []string{"active", "breached", "passed", "withdrawn", "inactive"}
)

type Account struct {
	UserID    string `gorm:"type:varchar(64);primaryKey" json:"userId"`
	AccountID string `gorm:"type:varchar(64);primaryKey" json:"accountId"`

	Name           string          `gorm:"type:varchar(100);not null" json:"name"`
	Broker         string          `gorm:"type:varchar(100);not null" json:"broker"`
	Type           string          `gorm:"type:varchar(20);not null" json:"type"`
	Status         string          `gorm:"type:varchar(20);not null;index" json:"status"`
	Balance        decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0" json:"balance"`
	InitialBalance decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0" json:"initialBalance"`
	Currency       string          `gorm:"type:varchar(3);not null" json:"currency"`
	Notes          *string         `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Account) TableName() string {
	return "accounts"
}
