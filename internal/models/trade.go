package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"

	// AllAccounts is the account id of a trade not bound to a specific account.
	AllAccounts = "-1"
)

// Trade is one journal entry, keyed by (UserID, TradeID). It is closed once ExitPrice is set.
type Trade struct {
	UserID    string `gorm:"type:varchar(64);primaryKey;uniqueIndex:uniq_trades_idempotency,priority:1" json:"userId"`
	TradeID   string `gorm:"type:varchar(64);primaryKey" json:"tradeId"`
	AccountID string `gorm:"type:varchar(64);not null;default:'-1';index;uniqueIndex:uniq_trades_idempotency,priority:3" json:"accountId"`

	Symbol   string          `gorm:"type:varchar(32);not null;index" json:"symbol"`
	Side     string          `gorm:"type:varchar(8);not null" json:"side"`
	Quantity decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"quantity"`

	EntryPrice      *decimal.Decimal `gorm:"type:numeric(30,10)" json:"entryPrice"`
	ExitPrice       *decimal.Decimal `gorm:"type:numeric(30,10)" json:"exitPrice"`
	StopLoss        *decimal.Decimal `gorm:"type:numeric(30,10)" json:"stopLoss"`
	TakeProfit      *decimal.Decimal `gorm:"type:numeric(30,10)" json:"takeProfit"`
	PnL             *decimal.Decimal `gorm:"column:pnl;type:numeric(30,10)" json:"pnl"`
	RiskRewardRatio *decimal.Decimal `gorm:"column:risk_reward_ratio;type:numeric(20,10)" json:"riskRewardRatio"`

	OpenDate  time.Time  `gorm:"not null;index" json:"openDate"`
	CloseDate *time.Time `json:"closeDate"`

	SetupType       string `gorm:"type:varchar(100)" json:"setupType,omitempty"`
	MarketCondition string `gorm:"type:varchar(100)" json:"marketCondition,omitempty"`
	TradingSession  string `gorm:"type:varchar(100)" json:"tradingSession,omitempty"`
	Outcome         string `gorm:"type:varchar(20);index" json:"outcome,omitempty"`
	Notes           string `gorm:"type:text" json:"notes,omitempty"`

	Tags          datatypes.JSON `json:"tags,omitempty"`
	Mistakes      datatypes.JSON `json:"mistakes,omitempty"`
	Lessons       datatypes.JSON `json:"lessons,omitempty"`
	NewsEvents    datatypes.JSON `json:"newsEvents,omitempty"`
	Images        datatypes.JSON `json:"images,omitempty"`
	BrokenRuleIDs datatypes.JSON `gorm:"column:broken_rule_ids" json:"brokenRuleIds,omitempty"`

	// One key may cover several rows when a create fans out across accounts.
	IdempotencyKey *string `gorm:"type:varchar(160);uniqueIndex:uniq_trades_idempotency,priority:2" json:"idempotencyKey,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Trade) TableName() string {
	return "trades"
}

// Closed reports whether the trade has an exit price.
func (t Trade) Closed() bool {
	return t.ExitPrice != nil
}

// Attachment is a screenshot stored in the object store and referenced from Trade.Images.
type Attachment struct {
	ID          string  `json:"id"`
	Key         string  `json:"key"`
	Timeframe   *string `json:"timeframe"`
	Description *string `json:"description"`
}
