package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatsSourceStreamInsert  = "stream-insert"
	StatsSourceStreamRebuild = "stream-rebuild"
	StatsSourcePeriodicJob   = "periodic-job"
	StatsSourceManual        = "manual"
)

// TradeStats is the per-user aggregate. Writers always replace the whole row.
type TradeStats struct {
	UserID     string `gorm:"type:varchar(64);primaryKey" json:"userId"`
	TradeCount int64  `gorm:"not null;default:0" json:"tradeCount"`

	// Explicit column names because default GORM naming turns "PnL" into "pn_l".
	RealizedPnL decimal.Decimal `gorm:"column:realized_pnl;type:numeric(30,10);not null;default:0" json:"realizedPnL"`
	Wins        int64           `gorm:"not null;default:0" json:"wins"`
	Losses      int64           `gorm:"not null;default:0" json:"losses"`
	BestWin     decimal.Decimal `gorm:"column:best_win;type:numeric(30,10);not null;default:0" json:"bestWin"`
	WorstLoss   decimal.Decimal `gorm:"column:worst_loss;type:numeric(30,10);not null;default:0" json:"worstLoss"`
	SumWinPnL   decimal.Decimal `gorm:"column:sum_win_pnl;type:numeric(30,10);not null;default:0" json:"sumWinPnL"`
	SumLossPnL  decimal.Decimal `gorm:"column:sum_loss_pnl;type:numeric(30,10);not null;default:0" json:"sumLossPnL"`

	LastUpdated time.Time `gorm:"not null" json:"lastUpdated"`
	Source      string    `gorm:"type:varchar(32)" json:"source,omitempty"`
}

func (TradeStats) TableName() string {
	return "trade_stats"
}

// ZeroStats returns the aggregate of an empty trade set.
func ZeroStats(userID string) TradeStats {
	return TradeStats{
		UserID:      userID,
		RealizedPnL: decimal.Zero,
		BestWin:     decimal.Zero,
		WorstLoss:   decimal.Zero,
		SumWinPnL:   decimal.Zero,
		SumLossPnL:  decimal.Zero,
	}
}

// SameAggregate compares every aggregate field, ignoring LastUpdated and Source.
func (s TradeStats) SameAggregate(o TradeStats) bool {
	return s.UserID == o.UserID &&
		s.TradeCount == o.TradeCount &&
		s.Wins == o.Wins &&
		s.Losses == o.Losses &&
		s.RealizedPnL.Equal(o.RealizedPnL) &&
		s.BestWin.Equal(o.BestWin) &&
		s.WorstLoss.Equal(o.WorstLoss) &&
		s.SumWinPnL.Equal(o.SumWinPnL) &&
		s.SumLossPnL.Equal(o.SumLossPnL)
}
