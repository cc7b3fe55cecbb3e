package stats

import (
	"github.com/shopspring/decimal"

	"tradejournal/internal/models"
)

// Summary is the aggregate plus the ratios shown on the dashboard.
type Summary struct {
	models.TradeStats
	WinRate    decimal.Decimal `json:"winRate"`
	AvgWin     decimal.Decimal `json:"avgWin"`
	AvgLoss    decimal.Decimal `json:"avgLoss"`
	Expectancy decimal.Decimal `json:"expectancy"`
}

// Derive computes win rate, average win, average loss (negative) and expectancy.
// Ratios over empty buckets are zero.
func Derive(s models.TradeStats) Summary {
	out := Summary{
		TradeStats: s,
		WinRate:    decimal.Zero,
		AvgWin:     decimal.Zero,
		AvgLoss:    decimal.Zero,
		Expectancy: decimal.Zero,
	}
	decided := s.Wins + s.Losses
	if decided > 0 {
		out.WinRate = decimal.NewFromInt(s.Wins).Div(decimal.NewFromInt(decided))
	}
	if s.Wins > 0 {
		out.AvgWin = s.SumWinPnL.Div(decimal.NewFromInt(s.Wins))
	}
	if s.Losses > 0 {
		out.AvgLoss = s.SumLossPnL.Div(decimal.NewFromInt(s.Losses))
	}
	out.Expectancy = out.WinRate.Mul(out.AvgWin).Add(decimal.NewFromInt(1).Sub(out.WinRate).Mul(out.AvgLoss))
	return out
}
