package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"tradejournal/internal/models"
)

// Accumulator folds a user's trades into an aggregate.
// Every trade counts toward TradeCount; only trades with a defined P&L touch the money fields.
type Accumulator struct {
	row models.TradeStats
}

func NewAccumulator(userID string) *Accumulator {
	return &Accumulator{row: models.ZeroStats(userID)}
}

func (a *Accumulator) Add(t models.Trade) {
	a.row.TradeCount++
	pnl, ok := TradePnL(t)
	if !ok {
		return
	}
	a.addPnL(pnl)
}

func (a *Accumulator) addPnL(pnl decimal.Decimal) {
	a.row.RealizedPnL = a.row.RealizedPnL.Add(pnl)
	switch pnl.Sign() {
	case 1:
		a.row.Wins++
		a.row.SumWinPnL = a.row.SumWinPnL.Add(pnl)
		if pnl.GreaterThan(a.row.BestWin) {
			a.row.BestWin = pnl
		}
	case -1:
		a.row.Losses++
		a.row.SumLossPnL = a.row.SumLossPnL.Add(pnl)
		if pnl.LessThan(a.row.WorstLoss) {
			a.row.WorstLoss = pnl
		}
	}
}

func (a *Accumulator) TradeCount() int64 {
	return a.row.TradeCount
}

// Result stamps the aggregate with the computation time and provenance.
func (a *Accumulator) Result(at time.Time, source string) models.TradeStats {
	out := a.row
	out.LastUpdated = at.UTC()
	out.Source = source
	return out
}
