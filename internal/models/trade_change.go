package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type ChangeEvent string

const (
	ChangeInsert ChangeEvent = "INSERT"
	ChangeModify ChangeEvent = "MODIFY"
	ChangeRemove ChangeEvent = "REMOVE"
)

// TradeChange is the outbox row written in the same transaction as a trade mutation.
// The relay publishes rows in ID order and stamps PublishedAt. Rows that keep
// failing are stamped ParkedAt instead and left to the periodic rebuild.
type TradeChange struct {
	ID        uint64      `gorm:"primaryKey;autoIncrement"`
	EventID   string      `gorm:"type:varchar(32);not null;uniqueIndex"`
	EventName ChangeEvent `gorm:"type:varchar(10);not null"`
	UserID    string      `gorm:"type:varchar(64);not null;index"`
	TradeID   string      `gorm:"type:varchar(64);not null"`

	OldImage datatypes.JSON
	NewImage datatypes.JSON

	Attempts    int        `gorm:"not null;default:0"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index"`
	PublishedAt *time.Time `gorm:"index"`
	ParkedAt    *time.Time `gorm:"index"`
}

func (TradeChange) TableName() string {
	return "trade_changes"
}

// TradeImage is the attribute snapshot of a trade carried on a change record.
type TradeImage struct {
	UserID     string           `json:"userId"`
	TradeID    string           `json:"tradeId"`
	AccountID  string           `json:"accountId,omitempty"`
	Symbol     string           `json:"symbol,omitempty"`
	Side       string           `json:"side,omitempty"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	EntryPrice *decimal.Decimal `json:"entryPrice,omitempty"`
	ExitPrice  *decimal.Decimal `json:"exitPrice,omitempty"`
}

func ImageOf(t Trade) *TradeImage {
	qty := t.Quantity
	return &TradeImage{
		UserID:     t.UserID,
		TradeID:    t.TradeID,
		AccountID:  t.AccountID,
		Symbol:     t.Symbol,
		Side:       t.Side,
		Quantity:   &qty,
		EntryPrice: t.EntryPrice,
		ExitPrice:  t.ExitPrice,
	}
}

// Closed reports whether the snapshot carries an exit price.
func (i *TradeImage) Closed() bool {
	return i != nil && i.ExitPrice != nil
}
