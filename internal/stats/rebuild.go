package stats

import (
	"context"
	"fmt"
	"time"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

const defaultPageSize = 200

// Flags is the feature switch lookup.
type Flags interface {
	IsEnabled(ctx context.Context, key string, fallback bool) bool
}

// rebuildUser pages through every trade of the user, folds them in memory and
// writes the aggregate once. A failure before the write leaves the stored row untouched.
func rebuildUser(ctx context.Context, trades repository.TradeReader, store repository.StatsRepository, userID, source string, pageSize int, now time.Time) (models.TradeStats, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	acc := NewAccumulator(userID)
	cursor := ""
	for {
		page, err := trades.QueryTradesByUser(ctx, userID, cursor, pageSize)
		if err != nil {
			return models.TradeStats{}, fmt.Errorf("query trades for %s: %w", userID, err)
		}
		for _, t := range page.Items {
			acc.Add(t)
		}
		if page.NextCursor == "" {
			break
		}
		if page.NextCursor == cursor {
			return models.TradeStats{}, fmt.Errorf("query trades for %s: cursor did not advance", userID)
		}
		cursor = page.NextCursor
	}
	row := acc.Result(now, source)
	if err := store.PutStats(ctx, &row); err != nil {
		return models.TradeStats{}, fmt.Errorf("put stats for %s: %w", userID, err)
	}
	return row, nil
}
