package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

// PeriodicRebuilder recomputes every user's aggregate from a full table scan.
type PeriodicRebuilder struct {
	Trades repository.TradeReader
	Stats  repository.StatsRepository
	Flags  Flags
	Logger *zap.Logger

	PageSize int
	Now      func() time.Time
}

type RebuildResult struct {
	ScannedTrades int      `json:"scannedTrades"`
	RebuiltUsers  int      `json:"rebuiltUsers"`
	ResetUsers    int      `json:"resetUsers"`
	FailedUsers   []string `json:"failedUsers,omitempty"`
}

// RunOnce scans all trades, groups them by user and overwrites each user's row.
// A scan error aborts before anything is written; a write error only skips that user.
// Users that still hold a row but no longer have trades are recomputed individually,
// which resets them to the empty aggregate.
func (r *PeriodicRebuilder) RunOnce(ctx context.Context) (RebuildResult, error) {
	var res RebuildResult
	if r == nil || r.Trades == nil || r.Stats == nil {
		return res, nil
	}
	if r.Flags != nil && !r.Flags.IsEnabled(ctx, FeatureRebuildJob, true) {
		return res, nil
	}
	started := time.Now()

	groups, scanned, err := r.scan(ctx)
	if err != nil {
		return res, err
	}
	res.ScannedTrades = scanned

	users := make([]string, 0, len(groups))
	for userID := range groups {
		users = append(users, userID)
	}
	sort.Strings(users)

	at := r.now()
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		row := groups[userID].Result(at, models.StatsSourcePeriodicJob)
		if err := r.Stats.PutStats(ctx, &row); err != nil {
			r.userFailed(&res, userID, err)
			continue
		}
		res.RebuiltUsers++
	}

	if err := r.resetOrphans(ctx, groups, &res); err != nil {
		if errors.Is(err, context.Canceled) {
			return res, err
		}
		if r.Logger != nil {
			r.Logger.Warn("stats orphan sweep failed", zap.Error(err))
		}
	}

	if r.Logger != nil {
		r.Logger.Info("stats rebuild finished",
			zap.Int("scanned_trades", res.ScannedTrades),
			zap.Int("rebuilt_users", res.RebuiltUsers),
			zap.Int("reset_users", res.ResetUsers),
			zap.Int("failed_users", len(res.FailedUsers)),
			zap.Duration("took", time.Since(started)),
		)
	}
	return res, nil
}

func (r *PeriodicRebuilder) scan(ctx context.Context) (map[string]*Accumulator, int, error) {
	groups := map[string]*Accumulator{}
	scanned := 0
	cursor := ""
	for {
		page, err := r.Trades.ScanTrades(ctx, repository.ScanParams{
			Cursor: cursor,
			Limit:  r.pageSize(),
			Fields: ScanProjection,
		})
		if err != nil {
			return nil, scanned, fmt.Errorf("scan trades: %w", err)
		}
		for _, t := range page.Items {
			if t.UserID == "" {
				continue
			}
			acc, ok := groups[t.UserID]
			if !ok {
				acc = NewAccumulator(t.UserID)
				groups[t.UserID] = acc
			}
			acc.Add(t)
			scanned++
		}
		if page.NextCursor == "" {
			return groups, scanned, nil
		}
		if page.NextCursor == cursor {
			return nil, scanned, errors.New("scan trades: cursor did not advance")
		}
		cursor = page.NextCursor
	}
}

func (r *PeriodicRebuilder) resetOrphans(ctx context.Context, seen map[string]*Accumulator, res *RebuildResult) error {
	cursor := ""
	for {
		ids, next, err := r.Stats.ListStatsUserIDs(ctx, cursor, r.pageSize())
		if err != nil {
			return fmt.Errorf("list stats users: %w", err)
		}
		for _, userID := range ids {
			if _, ok := seen[userID]; ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			// Trades may have arrived after the scan, so recompute instead of writing zeros.
			row, err := rebuildUser(ctx, r.Trades, r.Stats, userID, models.StatsSourcePeriodicJob, r.pageSize(), r.now())
			if err != nil {
				r.userFailed(res, userID, err)
				continue
			}
			if row.TradeCount == 0 {
				res.ResetUsers++
			} else {
				res.RebuiltUsers++
			}
		}
		if next == "" || next == cursor {
			return nil
		}
		cursor = next
	}
}

func (r *PeriodicRebuilder) userFailed(res *RebuildResult, userID string, err error) {
	res.FailedUsers = append(res.FailedUsers, userID)
	if r.Logger != nil {
		r.Logger.Warn("stats rebuild failed for user", zap.String("user_id", userID), zap.Error(err))
	}
}

func (r *PeriodicRebuilder) pageSize() int {
	if r.PageSize <= 0 {
		return 1000
	}
	return r.PageSize
}

func (r *PeriodicRebuilder) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
