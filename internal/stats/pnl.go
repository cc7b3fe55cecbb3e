// Package stats maintains the per-user trade aggregate.
//
// Two writers keep trade_stats in line with the trades table. The
// ChangeProcessor reacts to individual change records: an open insert only
// bumps the trade count, everything else recomputes the user from scratch.
// The PeriodicRebuilder sweeps the whole table on a schedule and overwrites
// every aggregate. Both write complete rows, so whichever finishes last
// leaves a self-consistent snapshot.
package stats

import (
	"strings"

	"github.com/shopspring/decimal"

	"tradejournal/internal/models"
)

const (
	FeatureStream     = "feature.stats_stream"
	FeatureRebuildJob = "feature.stats_rebuild_job"
)

// ScanProjection is the column set read by the periodic sweep.
var ScanProjection = []string{"user_id", "trade_id", "symbol", "side", "entry_price", "exit_price", "quantity"}

// CalcPnL returns the realized P&L of a trade. The second result is false when
// any input is missing or the side is neither BUY nor SELL.
func CalcPnL(side string, entry, exit, qty *decimal.Decimal) (decimal.Decimal, bool) {
	if entry == nil || exit == nil || qty == nil {
		return decimal.Zero, false
	}
	switch strings.ToUpper(strings.TrimSpace(side)) {
	case models.SideBuy:
		return exit.Sub(*entry).Mul(*qty), true
	case models.SideSell:
		return entry.Sub(*exit).Mul(*qty), true
	default:
		return decimal.Zero, false
	}
}

// TradePnL applies CalcPnL to a stored trade.
func TradePnL(t models.Trade) (decimal.Decimal, bool) {
	qty := t.Quantity
	return CalcPnL(t.Side, t.EntryPrice, t.ExitPrice, &qty)
}
