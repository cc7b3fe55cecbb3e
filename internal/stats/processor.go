package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tradejournal/internal/changefeed"
	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

// Deduper guards the open-insert increment against redelivered records.
type Deduper interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// ChangeProcessor applies trade change records to trade_stats.
type ChangeProcessor struct {
	Trades repository.TradeReader
	Stats  repository.StatsRepository
	Dedup  Deduper
	Flags  Flags
	Logger *zap.Logger

	PageSize int
	Now      func() time.Time
}

// HandleBatch processes records one by one and returns the event ids that failed.
// A failure never stops the rest of the batch. A failed record without an event
// id is reported by its trade id, or failing that its user, so the invoker never
// acknowledges it silently.
func (p *ChangeProcessor) HandleBatch(ctx context.Context, records []changefeed.Record) []string {
	if p == nil || p.Trades == nil || p.Stats == nil {
		return nil
	}
	if p.Flags != nil && !p.Flags.IsEnabled(ctx, FeatureStream, true) {
		return nil
	}
	var failed []string
	for _, rec := range records {
		if err := p.Process(ctx, rec); err != nil {
			if p.Logger != nil {
				p.Logger.Warn("stats change failed",
					zap.String("event_id", rec.EventID),
					zap.String("event_name", string(rec.EventName)),
					zap.String("user_id", rec.Owner()),
					zap.Error(err),
				)
			}
			failed = append(failed, failureID(rec))
		}
	}
	return failed
}

// Process applies a single record. Records without a user are ignored.
func (p *ChangeProcessor) Process(ctx context.Context, rec changefeed.Record) error {
	userID := rec.Owner()
	if userID == "" {
		return nil
	}
	switch rec.EventName {
	case models.ChangeInsert:
		if rec.NewImage.Closed() {
			_, err := p.RebuildUser(ctx, userID, models.StatsSourceStreamRebuild)
			return err
		}
		return p.countOpenInsert(ctx, userID, rec.EventID)
	case models.ChangeModify, models.ChangeRemove:
		_, err := p.RebuildUser(ctx, userID, models.StatsSourceStreamRebuild)
		return err
	default:
		return nil
	}
}

// RebuildUser recomputes the user's aggregate from every stored trade and overwrites it.
func (p *ChangeProcessor) RebuildUser(ctx context.Context, userID, source string) (models.TradeStats, error) {
	if p == nil || p.Trades == nil || p.Stats == nil {
		return models.TradeStats{}, errors.New("stats processor not configured")
	}
	return rebuildUser(ctx, p.Trades, p.Stats, userID, source, p.PageSize, p.now())
}

func (p *ChangeProcessor) countOpenInsert(ctx context.Context, userID, eventID string) error {
	if p.Dedup != nil && eventID != "" {
		claimed, err := p.Dedup.Claim(ctx, eventID)
		if err != nil {
			return fmt.Errorf("claim %s: %w", eventID, err)
		}
		if !claimed {
			if p.Logger != nil {
				p.Logger.Debug("skipping redelivered insert", zap.String("event_id", eventID))
			}
			return nil
		}
	}
	err := p.incrementTradeCount(ctx, userID)
	if err != nil && p.Dedup != nil && eventID != "" {
		if rerr := p.Dedup.Release(ctx, eventID); rerr != nil && p.Logger != nil {
			p.Logger.Warn("release dedup claim failed", zap.String("event_id", eventID), zap.Error(rerr))
		}
	}
	return err
}

func (p *ChangeProcessor) incrementTradeCount(ctx context.Context, userID string) error {
	current, err := p.Stats.GetStats(ctx, userID)
	var row models.TradeStats
	switch {
	case err == nil:
		row = *current
	case errors.Is(err, repository.ErrNotFound):
		row = models.ZeroStats(userID)
	default:
		return fmt.Errorf("get stats for %s: %w", userID, err)
	}
	row.TradeCount++
	row.LastUpdated = p.now().UTC()
	row.Source = models.StatsSourceStreamInsert
	if err := p.Stats.PutStats(ctx, &row); err != nil {
		return fmt.Errorf("put stats for %s: %w", userID, err)
	}
	return nil
}

func failureID(rec changefeed.Record) string {
	if rec.EventID != "" {
		return rec.EventID
	}
	if rec.TradeID != "" {
		return "trade:" + rec.TradeID
	}
	return "user:" + rec.Owner()
}

func (p *ChangeProcessor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
