package service

import (
	"context"
	"errors"

	"tradejournal/internal/models"
	"tradejournal/internal/repository"
	"tradejournal/internal/stats"
)

// UserRebuilder recomputes one user's aggregate from their trades.
type UserRebuilder interface {
	RebuildUser(ctx context.Context, userID, source string) (models.TradeStats, error)
}

type StatsService struct {
	Stats     repository.StatsRepository
	Rebuilder UserRebuilder
}

// Get returns the stored aggregate with derived ratios. A user without a row gets zeroes.
func (s *StatsService) Get(ctx context.Context, userID string) (stats.Summary, error) {
	item, err := s.Stats.GetStats(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && item == nil) {
		return stats.Derive(models.ZeroStats(userID)), nil
	}
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Derive(*item), nil
}

// Rebuild recomputes the caller's aggregate immediately.
func (s *StatsService) Rebuild(ctx context.Context, userID string) (stats.Summary, error) {
	if s.Rebuilder == nil {
		return stats.Summary{}, errors.New("stats rebuild unavailable")
	}
	item, err := s.Rebuilder.RebuildUser(ctx, userID, models.StatsSourceManual)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Derive(item), nil
}
