package stats

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/changefeed"
	"tradejournal/internal/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newProcessor(store *memStore) *ChangeProcessor {
	return &ChangeProcessor{
		Trades:   store,
		Stats:    store,
		PageSize: 2,
		Now:      func() time.Time { return fixedNow },
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestCalcPnLSignConventions(t *testing.T) {
	cases := []struct {
		name             string
		side             string
		entry, exit, qty string
		want             string
	}{
		{"buy winner", models.SideBuy, "100", "110", "2", "20"},
		{"sell winner", models.SideSell, "100", "90", "3", "30"},
		{"buy loser", models.SideBuy, "100", "95", "1", "-5"},
		{"lowercase side", "sell", "50", "55", "2", "-10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := CalcPnL(tc.side, d(tc.entry), d(tc.exit), d(tc.qty))
			require.True(t, ok)
			assertDecimal(t, tc.want, got)
		})
	}

	_, ok := CalcPnL(models.SideBuy, d("100"), nil, d("1"))
	assert.False(t, ok)
	_, ok = CalcPnL(models.SideBuy, nil, d("100"), d("1"))
	assert.False(t, ok)
	_, ok = CalcPnL(models.SideBuy, d("100"), d("110"), nil)
	assert.False(t, ok)
	_, ok = CalcPnL("SHORT", d("100"), d("110"), d("1"))
	assert.False(t, ok)
	_, ok = CalcPnL("", d("100"), d("110"), d("1"))
	assert.False(t, ok)
}

func scenarioTrades() []models.Trade {
	return []models.Trade{
		trade("u1", "a", models.SideBuy, "100", "110", "1"),
		trade("u1", "b", models.SideSell, "50", "55", "2"),
		trade("u1", "c", models.SideBuy, "100", "", "1"),
	}
}

func TestAccumulatorScenario(t *testing.T) {
	acc := NewAccumulator("u1")
	for _, tr := range scenarioTrades() {
		acc.Add(tr)
	}
	row := acc.Result(fixedNow, models.StatsSourceManual)

	assert.EqualValues(t, 3, row.TradeCount)
	assertDecimal(t, "0", row.RealizedPnL)
	assert.EqualValues(t, 1, row.Wins)
	assert.EqualValues(t, 1, row.Losses)
	assertDecimal(t, "10", row.BestWin)
	assertDecimal(t, "-10", row.WorstLoss)
	assertDecimal(t, "10", row.SumWinPnL)
	assertDecimal(t, "-10", row.SumLossPnL)
	assert.Equal(t, fixedNow, row.LastUpdated)
	assert.Equal(t, models.StatsSourceManual, row.Source)
}

func TestAccumulatorZeroPnLIsNeitherWinNorLoss(t *testing.T) {
	acc := NewAccumulator("u1")
	acc.Add(trade("u1", "flat", models.SideBuy, "100", "100", "5"))
	acc.Add(trade("u1", "junk", "HOLD", "100", "120", "5"))
	row := acc.Result(fixedNow, "")
	assert.EqualValues(t, 2, row.TradeCount)
	assert.Zero(t, row.Wins)
	assert.Zero(t, row.Losses)
	assert.True(t, row.RealizedPnL.IsZero())
	assert.True(t, row.BestWin.IsZero())
	assert.True(t, row.WorstLoss.IsZero())
}

func TestRebuildUserFollowsPagination(t *testing.T) {
	store := newMemStore()
	for _, tr := range scenarioTrades() {
		store.put(tr)
	}
	store.put(trade("u1", "d", models.SideBuy, "10", "15", "2"))
	store.put(trade("u1", "e", models.SideSell, "10", "12", "1"))
	store.put(trade("u2", "z", models.SideBuy, "1", "2", "1"))

	p := newProcessor(store)
	row, err := p.RebuildUser(context.Background(), "u1", models.StatsSourceManual)
	require.NoError(t, err)

	assert.EqualValues(t, 5, row.TradeCount)
	assertDecimal(t, "8", row.RealizedPnL)
	assert.EqualValues(t, 2, row.Wins)
	assert.EqualValues(t, 2, row.Losses)
	assertDecimal(t, "10", row.BestWin)
	assertDecimal(t, "-10", row.WorstLoss)

	stored, ok := store.statsFor("u1")
	require.True(t, ok)
	assert.True(t, stored.SameAggregate(row))
}

func TestRemovalCorrectness(t *testing.T) {
	store := newMemStore()
	for _, tr := range scenarioTrades() {
		store.put(tr)
	}
	p := newProcessor(store)
	removed := scenarioTrades()[0]
	store.remove("u1", removed.TradeID)

	failed := p.HandleBatch(context.Background(), []changefeed.Record{{
		EventID:   "e1",
		EventName: models.ChangeRemove,
		OldImage:  models.ImageOf(removed),
	}})
	require.Empty(t, failed)

	row, ok := store.statsFor("u1")
	require.True(t, ok)
	assert.EqualValues(t, 2, row.TradeCount)
	assertDecimal(t, "-10", row.RealizedPnL)
	assert.EqualValues(t, 0, row.Wins)
	assert.EqualValues(t, 1, row.Losses)
	assertDecimal(t, "0", row.BestWin)
	assertDecimal(t, "-10", row.WorstLoss)
	assert.Equal(t, models.StatsSourceStreamRebuild, row.Source)
}

func TestRebuildIsIdempotent(t *testing.T) {
	store := newMemStore()
	for _, tr := range scenarioTrades() {
		store.put(tr)
	}
	tick := fixedNow
	p := newProcessor(store)
	p.Now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	first, err := p.RebuildUser(context.Background(), "u1", models.StatsSourceManual)
	require.NoError(t, err)
	second, err := p.RebuildUser(context.Background(), "u1", models.StatsSourceManual)
	require.NoError(t, err)

	assert.True(t, first.SameAggregate(second))
	assert.True(t, second.LastUpdated.After(first.LastUpdated))
}

func TestOpenInsertOnlyIncrementsTradeCount(t *testing.T) {
	store := newMemStore()
	for _, tr := range scenarioTrades() {
		store.put(tr)
	}
	p := newProcessor(store)
	before, err := p.RebuildUser(context.Background(), "u1", models.StatsSourceManual)
	require.NoError(t, err)

	open := trade("u1", "f", models.SideBuy, "100", "", "1")
	store.put(open)
	failed := p.HandleBatch(context.Background(), []changefeed.Record{{
		EventID:   "e-open",
		EventName: models.ChangeInsert,
		NewImage:  models.ImageOf(open),
	}})
	require.Empty(t, failed)

	after, _ := store.statsFor("u1")
	assert.Equal(t, before.TradeCount+1, after.TradeCount)
	assert.True(t, before.RealizedPnL.Equal(after.RealizedPnL))
	assert.Equal(t, before.Wins, after.Wins)
	assert.Equal(t, before.Losses, after.Losses)
	assert.True(t, before.BestWin.Equal(after.BestWin))
	assert.True(t, before.WorstLoss.Equal(after.WorstLoss))
	assert.Equal(t, models.StatsSourceStreamInsert, after.Source)
}

func TestOpenInsertWithoutExistingStatsStartsFromZero(t *testing.T) {
	store := newMemStore()
	p := newProcessor(store)
	open := trade("new-user", "t1", models.SideSell, "10", "", "1")
	require.NoError(t, p.Process(context.Background(), changefeed.Record{
		EventID:   "e1",
		EventName: models.ChangeInsert,
		NewImage:  models.ImageOf(open),
	}))
	row, ok := store.statsFor("new-user")
	require.True(t, ok)
	assert.EqualValues(t, 1, row.TradeCount)
	assert.True(t, row.RealizedPnL.IsZero())
	assert.Equal(t, fixedNow, row.LastUpdated)
}

func TestClosedInsertMatchesFullRebuild(t *testing.T) {
	store := newMemStore()
	store.put(trade("u1", "a", models.SideBuy, "100", "110", "1"))
	p := newProcessor(store)
	// Stale row that an increment would have built on.
	stale := models.ZeroStats("u1")
	stale.TradeCount = 7
	require.NoError(t, store.PutStats(context.Background(), &stale))

	closed := trade("u1", "b", models.SideSell, "50", "45", "4")
	store.put(closed)
	require.Empty(t, p.HandleBatch(context.Background(), []changefeed.Record{{
		EventID:   "e1",
		EventName: models.ChangeInsert,
		NewImage:  models.ImageOf(closed),
	}}))

	got, _ := store.statsFor("u1")
	acc := NewAccumulator("u1")
	for _, tr := range store.sorted("u1") {
		acc.Add(tr)
	}
	assert.True(t, acc.Result(fixedNow, "").SameAggregate(got))
	assert.EqualValues(t, 2, got.TradeCount)
	assertDecimal(t, "30", got.RealizedPnL)
}

func TestBatchPartialFailureReportsOnlyFailedRecord(t *testing.T) {
	store := newMemStore()
	store.put(trade("ok1", "a", models.SideBuy, "1", "3", "1"))
	store.put(trade("bad", "a", models.SideBuy, "1", "3", "1"))
	store.put(trade("ok2", "a", models.SideSell, "5", "3", "1"))
	store.failQuery["bad"] = errBoom
	p := newProcessor(store)

	records := []changefeed.Record{
		{EventID: "r1", EventName: models.ChangeModify, UserID: "ok1"},
		{EventID: "r2", EventName: models.ChangeModify, UserID: "bad"},
		{EventID: "r3", EventName: models.ChangeRemove, UserID: "ok2"},
		{EventID: "r4", EventName: models.ChangeModify},
	}
	failed := p.HandleBatch(context.Background(), records)
	assert.Equal(t, []string{"r2"}, failed)

	_, ok := store.statsFor("bad")
	assert.False(t, ok)
	row1, ok := store.statsFor("ok1")
	require.True(t, ok)
	assertDecimal(t, "2", row1.RealizedPnL)
	row2, ok := store.statsFor("ok2")
	require.True(t, ok)
	assertDecimal(t, "2", row2.RealizedPnL)
}

func TestFailedRecordWithoutEventIDIsStillReported(t *testing.T) {
	store := newMemStore()
	store.failQuery["u1"] = errBoom
	p := newProcessor(store)

	failed := p.HandleBatch(context.Background(), []changefeed.Record{
		{EventName: models.ChangeModify, UserID: "u1", TradeID: "t1"},
		{EventName: models.ChangeRemove, UserID: "u1"},
	})
	assert.Equal(t, []string{"trade:t1", "user:u1"}, failed)
}

func TestFailedRebuildKeepsPreviousAggregate(t *testing.T) {
	store := newMemStore()
	store.put(trade("u1", "a", models.SideBuy, "1", "3", "1"))
	p := newProcessor(store)
	before, err := p.RebuildUser(context.Background(), "u1", models.StatsSourceManual)
	require.NoError(t, err)

	store.put(trade("u1", "b", models.SideBuy, "1", "9", "1"))
	store.failQuery["u1"] = errBoom
	_, err = p.RebuildUser(context.Background(), "u1", models.StatsSourceManual)
	require.ErrorIs(t, err, errBoom)

	after, _ := store.statsFor("u1")
	assert.Equal(t, before, after)
}

func TestRedeliveredOpenInsertIsCountedOnce(t *testing.T) {
	store := newMemStore()
	dedup := newMemDedup()
	p := newProcessor(store)
	p.Dedup = dedup
	open := trade("u1", "t1", models.SideBuy, "10", "", "1")
	rec := changefeed.Record{EventID: "e1", EventName: models.ChangeInsert, NewImage: models.ImageOf(open)}

	require.Empty(t, p.HandleBatch(context.Background(), []changefeed.Record{rec, rec}))
	require.Empty(t, p.HandleBatch(context.Background(), []changefeed.Record{rec}))

	row, _ := store.statsFor("u1")
	assert.EqualValues(t, 1, row.TradeCount)
}

func TestFailedOpenInsertReleasesDedupClaim(t *testing.T) {
	store := newMemStore()
	store.failPut["u1"] = errBoom
	dedup := newMemDedup()
	p := newProcessor(store)
	p.Dedup = dedup
	open := trade("u1", "t1", models.SideBuy, "10", "", "1")
	rec := changefeed.Record{EventID: "e1", EventName: models.ChangeInsert, NewImage: models.ImageOf(open)}

	assert.Equal(t, []string{"e1"}, p.HandleBatch(context.Background(), []changefeed.Record{rec}))
	assert.Equal(t, []string{"e1"}, dedup.released)

	delete(store.failPut, "u1")
	assert.Empty(t, p.HandleBatch(context.Background(), []changefeed.Record{rec}))
	row, _ := store.statsFor("u1")
	assert.EqualValues(t, 1, row.TradeCount)
}

func TestRecordsWithoutUserAreSkipped(t *testing.T) {
	store := newMemStore()
	p := newProcessor(store)
	failed := p.HandleBatch(context.Background(), []changefeed.Record{
		{EventID: "x", EventName: models.ChangeInsert},
		{EventID: "y", EventName: models.ChangeRemove, OldImage: &models.TradeImage{}},
	})
	assert.Empty(t, failed)
	assert.Zero(t, store.puts)
}

func TestStreamSwitchOffSkipsBatch(t *testing.T) {
	store := newMemStore()
	p := newProcessor(store)
	p.Flags = staticFlags{FeatureStream: false}
	failed := p.HandleBatch(context.Background(), []changefeed.Record{{EventID: "e", EventName: models.ChangeModify, UserID: "u1"}})
	assert.Empty(t, failed)
	assert.Zero(t, store.puts)
}

// Events for a user are applied in random order, with duplicates and an
// intermediate state that no longer matches the final trades. A rebuild must
// still land on the aggregate of the final trade set.
func TestConvergenceRegardlessOfEventOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 20; round++ {
		store := newMemStore()
		p := newProcessor(store)

		final := []models.Trade{
			trade("u1", "a", models.SideBuy, "100", "120", "1"),
			trade("u1", "b", models.SideSell, "40", "44", "3"),
			trade("u1", "c", models.SideBuy, "7", "", "10"),
			trade("u1", "d", models.SideSell, "10", "10", "1"),
		}
		for _, tr := range final {
			store.put(tr)
		}
		ghost := trade("u1", "ghost", models.SideBuy, "1", "100", "1")

		records := []changefeed.Record{
			{EventID: "1", EventName: models.ChangeInsert, NewImage: models.ImageOf(final[2])},
			{EventID: "2", EventName: models.ChangeInsert, NewImage: models.ImageOf(final[0])},
			{EventID: "3", EventName: models.ChangeModify, OldImage: models.ImageOf(final[1]), NewImage: models.ImageOf(final[1])},
			{EventID: "4", EventName: models.ChangeRemove, OldImage: models.ImageOf(ghost)},
			{EventID: "5", EventName: models.ChangeInsert, NewImage: models.ImageOf(final[3])},
			{EventID: "1", EventName: models.ChangeInsert, NewImage: models.ImageOf(final[2])},
		}
		rng.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })
		require.Empty(t, p.HandleBatch(context.Background(), records))

		got, err := p.RebuildUser(context.Background(), "u1", models.StatsSourceManual)
		require.NoError(t, err)

		want := NewAccumulator("u1")
		for _, tr := range final {
			want.Add(tr)
		}
		assert.True(t, want.Result(fixedNow, "").SameAggregate(got), "round %d", round)
	}
}

func TestDeriveRatios(t *testing.T) {
	row := models.ZeroStats("u1")
	row.Wins = 3
	row.Losses = 1
	row.SumWinPnL = decimal.NewFromInt(30)
	row.SumLossPnL = decimal.NewFromInt(-10)

	s := Derive(row)
	assertDecimal(t, "0.75", s.WinRate)
	assertDecimal(t, "10", s.AvgWin)
	assertDecimal(t, "-10", s.AvgLoss)
	assertDecimal(t, "5", s.Expectancy)

	empty := Derive(models.ZeroStats("u2"))
	assert.True(t, empty.WinRate.IsZero())
	assert.True(t, empty.Expectancy.IsZero())
}
