package changefeed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

// Relay drains unpublished trade_changes rows into a Publisher.
// Rows are marked published only after the publisher accepted them. A row that
// failed MaxAttempts times is parked so it no longer holds up the rest.
type Relay struct {
	Changes     repository.ChangeRepository
	Publisher   Publisher
	BatchSize   int
	MaxAttempts int
	Logger      *zap.Logger
}

const defaultMaxAttempts = 10

func (r *Relay) Run(ctx context.Context, interval time.Duration) error {
	if r == nil || r.Changes == nil || r.Publisher == nil {
		return nil
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if _, err := r.RunOnce(ctx); err != nil && r.Logger != nil {
			r.Logger.Warn("change relay run failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// RunOnce walks every pending row once, a page at a time, and returns the
// number of rows marked published. Failed rows stay pending; paging continues
// past them so later rows are still delivered on this tick.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	if r == nil || r.Changes == nil || r.Publisher == nil {
		return 0, nil
	}
	batch := r.BatchSize
	if batch <= 0 {
		batch = 100
	}
	total := 0
	var afterID uint64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		rows, err := r.Changes.ListPendingChanges(ctx, afterID, batch)
		if err != nil {
			return total, err
		}
		if len(rows) == 0 {
			return total, nil
		}
		n, err := r.publishPage(ctx, rows)
		total += n
		if err != nil {
			return total, err
		}
		if len(rows) < batch {
			return total, nil
		}
		afterID = rows[len(rows)-1].ID
	}
}

func (r *Relay) publishPage(ctx context.Context, rows []models.TradeChange) (int, error) {
	records := make([]Record, 0, len(rows))
	rowByEvent := make(map[string]models.TradeChange, len(rows))
	var done []uint64
	for _, row := range rows {
		rec, err := FromChange(row)
		if err != nil {
			// A row that cannot be decoded will never publish; drop it.
			r.logWarn("dropping undecodable change", row, err)
			done = append(done, row.ID)
			continue
		}
		records = append(records, rec)
		rowByEvent[rec.EventID] = row
	}

	failed := map[string]struct{}{}
	if len(records) > 0 {
		for _, id := range r.Publisher.Publish(ctx, records) {
			failed[id] = struct{}{}
		}
	}

	var retry, park []uint64
	for _, rec := range records {
		row := rowByEvent[rec.EventID]
		if _, ok := failed[rec.EventID]; !ok {
			done = append(done, row.ID)
			continue
		}
		retry = append(retry, row.ID)
		if row.Attempts+1 >= r.maxAttempts() {
			park = append(park, row.ID)
			r.logWarn("parking change after repeated failures", row, nil)
		}
	}

	now := time.Now().UTC()
	if err := r.Changes.MarkChangesPublished(ctx, done, now); err != nil {
		return 0, err
	}
	if len(retry) > 0 {
		if err := r.Changes.IncrementChangeAttempts(ctx, retry); err != nil && r.Logger != nil {
			r.Logger.Warn("increment change attempts failed", zap.Error(err))
		}
		if r.Logger != nil {
			r.Logger.Info("change relay batch partially failed",
				zap.Int("published", len(done)),
				zap.Int("failed", len(retry)),
				zap.Int("parked", len(park)),
			)
		}
	}
	if err := r.Changes.ParkChanges(ctx, park, now); err != nil {
		return len(done), err
	}
	return len(done), nil
}

func (r *Relay) maxAttempts() int {
	if r.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return r.MaxAttempts
}

func (r *Relay) logWarn(msg string, row models.TradeChange, err error) {
	if r.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.Uint64("change_id", row.ID),
		zap.String("event_id", row.EventID),
		zap.String("user_id", row.UserID),
		zap.Int("attempts", row.Attempts),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	r.Logger.Warn(msg, fields...)
}

// DirectPublisher feeds records straight into an in-process handler.
type DirectPublisher struct {
	Handler BatchHandler
}

func (p *DirectPublisher) Publish(ctx context.Context, records []Record) []string {
	if p == nil || p.Handler == nil {
		return eventIDs(records)
	}
	return p.Handler.HandleBatch(ctx, records)
}

func eventIDs(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.EventID)
	}
	return out
}
