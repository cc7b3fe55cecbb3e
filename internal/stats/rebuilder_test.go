package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/models"
)

func newRebuilder(store *memStore) *PeriodicRebuilder {
	return &PeriodicRebuilder{
		Trades:   store,
		Stats:    store,
		PageSize: 2,
		Now:      func() time.Time { return fixedNow },
	}
}

func TestPeriodicRebuilderOverwritesEveryUser(t *testing.T) {
	store := newMemStore()
	for _, tr := range scenarioTrades() {
		store.put(tr)
	}
	store.put(trade("u2", "x", models.SideSell, "10", "8", "5"))
	drifted := models.ZeroStats("u1")
	drifted.TradeCount = 99
	drifted.Wins = 12
	require.NoError(t, store.PutStats(context.Background(), &drifted))

	res, err := newRebuilder(store).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, res.ScannedTrades)
	assert.Equal(t, 2, res.RebuiltUsers)
	assert.Zero(t, res.ResetUsers)
	assert.Empty(t, res.FailedUsers)

	u1, _ := store.statsFor("u1")
	assert.EqualValues(t, 3, u1.TradeCount)
	assert.EqualValues(t, 1, u1.Wins)
	assert.Equal(t, models.StatsSourcePeriodicJob, u1.Source)
	u2, _ := store.statsFor("u2")
	assertDecimal(t, "10", u2.RealizedPnL)
}

func TestPeriodicRebuilderMatchesPerUserRebuild(t *testing.T) {
	store := newMemStore()
	for _, tr := range scenarioTrades() {
		store.put(tr)
	}
	store.put(trade("u1", "d", models.SideBuy, "3", "1", "7"))

	_, err := newRebuilder(store).RunOnce(context.Background())
	require.NoError(t, err)
	swept, _ := store.statsFor("u1")

	single, err := newProcessor(store).RebuildUser(context.Background(), "u1", models.StatsSourceManual)
	require.NoError(t, err)
	assert.True(t, swept.SameAggregate(single))
}

func TestPeriodicRebuilderResetsUsersWithoutTrades(t *testing.T) {
	store := newMemStore()
	store.put(trade("u1", "a", models.SideBuy, "1", "2", "1"))
	gone := models.ZeroStats("gone")
	gone.TradeCount = 4
	gone.Wins = 2
	require.NoError(t, store.PutStats(context.Background(), &gone))

	res, err := newRebuilder(store).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.RebuiltUsers)
	assert.Equal(t, 1, res.ResetUsers)

	row, ok := store.statsFor("gone")
	require.True(t, ok)
	assert.True(t, row.SameAggregate(models.ZeroStats("gone")))
}

func TestPeriodicRebuilderScanFailureWritesNothing(t *testing.T) {
	store := newMemStore()
	store.put(trade("u1", "a", models.SideBuy, "1", "2", "1"))
	store.failScan = errBoom

	_, err := newRebuilder(store).RunOnce(context.Background())
	require.ErrorIs(t, err, errBoom)
	assert.Zero(t, store.puts)
}

func TestPeriodicRebuilderIsolatesUserFailures(t *testing.T) {
	store := newMemStore()
	store.put(trade("a", "1", models.SideBuy, "1", "2", "1"))
	store.put(trade("b", "1", models.SideBuy, "1", "2", "1"))
	store.put(trade("c", "1", models.SideBuy, "1", "2", "1"))
	store.failPut["b"] = errBoom

	res, err := newRebuilder(store).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.RebuiltUsers)
	assert.Equal(t, []string{"b"}, res.FailedUsers)
	_, ok := store.statsFor("c")
	assert.True(t, ok)
}

func TestPeriodicRebuilderSwitchOff(t *testing.T) {
	store := newMemStore()
	store.put(trade("a", "1", models.SideBuy, "1", "2", "1"))
	r := newRebuilder(store)
	r.Flags = staticFlags{FeatureRebuildJob: false}

	res, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.ScannedTrades)
	assert.Zero(t, store.puts)
}

func TestPeriodicRebuilderIsIdempotent(t *testing.T) {
	store := newMemStore()
	for _, tr := range scenarioTrades() {
		store.put(tr)
	}
	r := newRebuilder(store)
	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	first, _ := store.statsFor("u1")
	_, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	second, _ := store.statsFor("u1")
	assert.Equal(t, first, second)
}
