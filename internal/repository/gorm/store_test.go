package gormrepository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/config"
	"tradejournal/internal/db"
	"tradejournal/internal/models"
	"tradejournal/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn, err := db.Open(config.DBConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "journal.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, db.AutoMigrate(conn))
	return New(conn.Gorm)
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func testTrade(userID, tradeID string, openDate time.Time) models.Trade {
	return models.Trade{
		UserID:     userID,
		TradeID:    tradeID,
		AccountID:  models.AllAccounts,
		Symbol:     "EURUSD",
		Side:       models.SideBuy,
		Quantity:   decimal.NewFromInt(1),
		EntryPrice: dec("100"),
		OpenDate:   openDate,
	}
}

func TestInsertTradesWritesOutbox(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertTrades(ctx, []models.Trade{
		testTrade("u1", "t1", at),
		testTrade("u1", "t2", at),
	}))

	changes, err := store.ListPendingChanges(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	for _, ch := range changes {
		assert.Equal(t, models.ChangeInsert, ch.EventName)
		assert.Equal(t, "u1", ch.UserID)
		assert.Len(t, ch.EventID, 26)
		assert.Empty(t, ch.OldImage)
		var img models.TradeImage
		require.NoError(t, json.Unmarshal(ch.NewImage, &img))
		assert.Equal(t, ch.TradeID, img.TradeID)
		assert.False(t, img.Closed())
	}
}

func TestUpdateTradeWritesModifyChange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertTrades(ctx, []models.Trade{testTrade("u1", "t1", at)}))
	pending, err := store.ListPendingChanges(ctx, 0, 10)
	require.NoError(t, err)
	require.NoError(t, store.MarkChangesPublished(ctx, []uint64{pending[0].ID}, time.Now()))

	updated := testTrade("u1", "t1", at)
	updated.ExitPrice = dec("110")
	require.NoError(t, store.UpdateTrade(ctx, &updated))

	got, err := store.GetTrade(ctx, "u1", "t1")
	require.NoError(t, err)
	require.NotNil(t, got.ExitPrice)
	assert.True(t, got.ExitPrice.Equal(decimal.NewFromInt(110)))

	changes, err := store.ListPendingChanges(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, models.ChangeModify, changes[0].EventName)
	var oldImg, newImg models.TradeImage
	require.NoError(t, json.Unmarshal(changes[0].OldImage, &oldImg))
	require.NoError(t, json.Unmarshal(changes[0].NewImage, &newImg))
	assert.False(t, oldImg.Closed())
	assert.True(t, newImg.Closed())

	missing := testTrade("u1", "nope", at)
	assert.True(t, errors.Is(store.UpdateTrade(ctx, &missing), repository.ErrNotFound))
}

func TestDeleteTradesReportsExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertTrades(ctx, []models.Trade{
		testTrade("u1", "t1", at),
		testTrade("u1", "t2", at),
		testTrade("u2", "t3", at),
	}))

	deleted, err := store.DeleteTrades(ctx, "u1", []string{"t1", "t3", "missing"})
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, deleted)

	_, err = store.GetTrade(ctx, "u1", "t1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.GetTrade(ctx, "u2", "t3")
	assert.NoError(t, err)

	assert.ErrorIs(t, store.DeleteTrade(ctx, "u1", "t1"), repository.ErrNotFound)

	changes, err := store.ListChangesByUser(ctx, "u1", time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, changes, 3)
	last := changes[len(changes)-1]
	assert.Equal(t, models.ChangeRemove, last.EventName)
	assert.Equal(t, "t1", last.TradeID)
	assert.Empty(t, last.NewImage)
}

func TestQueryTradesByUserFollowsCursor(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	var items []models.Trade
	for i := 0; i < 5; i++ {
		items = append(items, testTrade("u1", fmt.Sprintf("t%d", i), at))
	}
	items = append(items, testTrade("u2", "t9", at))
	require.NoError(t, store.InsertTrades(ctx, items))

	var seen []string
	cursor := ""
	pages := 0
	for {
		page, err := store.QueryTradesByUser(ctx, "u1", cursor, 2)
		require.NoError(t, err)
		pages++
		for _, tr := range page.Items {
			seen = append(seen, tr.TradeID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	assert.Equal(t, 3, pages)
	assert.Equal(t, []string{"t0", "t1", "t2", "t3", "t4"}, seen)
}

func TestScanTradesProjectsAndPages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	a := testTrade("a", "1", at)
	a.Notes = "hidden"
	require.NoError(t, store.InsertTrades(ctx, []models.Trade{
		a, testTrade("a", "2", at), testTrade("b", "1", at),
	}))

	fields := []string{"user_id", "trade_id", "side", "entry_price", "exit_price", "quantity"}
	first, err := store.ScanTrades(ctx, repository.ScanParams{Limit: 2, Fields: fields})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)
	assert.Empty(t, first.Items[0].Notes)

	second, err := store.ScanTrades(ctx, repository.ScanParams{Cursor: first.NextCursor, Limit: 2, Fields: fields})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "b", second.Items[0].UserID)
	assert.Empty(t, second.NextCursor)

	_, err = store.ScanTrades(ctx, repository.ScanParams{Cursor: "%%"})
	assert.ErrorIs(t, err, repository.ErrInvalidCursor)
}

func TestListTradesFiltersAccountAndDates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC) }
	acc := testTrade("u1", "acc", day(2))
	acc.AccountID = "A"
	other := testTrade("u1", "other", day(3))
	other.AccountID = "B"
	all := testTrade("u1", "all", day(4))
	old := testTrade("u1", "old", day(1))
	old.AccountID = "A"
	require.NoError(t, store.InsertTrades(ctx, []models.Trade{acc, other, all, old}))

	start, end := day(2), day(5)
	page, err := store.ListTrades(ctx, repository.ListTradesParams{UserID: "u1", AccountID: "A", StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	ids := make([]string, 0, len(page.Items))
	for _, tr := range page.Items {
		ids = append(ids, tr.TradeID)
	}
	assert.Equal(t, []string{"all", "acc"}, ids)

	page, err = store.ListTrades(ctx, repository.ListTradesParams{UserID: "u1", AccountID: "ALL", Limit: 3})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	require.NotEmpty(t, page.NextCursor)
	rest, err := store.ListTrades(ctx, repository.ListTradesParams{UserID: "u1", AccountID: "ALL", Limit: 3, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Equal(t, "old", rest.Items[0].TradeID)
}

func TestIdempotencyKeyIsUniquePerAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	key := "k-1"
	a := testTrade("u1", "t1", at)
	a.AccountID = "A"
	a.IdempotencyKey = &key
	b := testTrade("u1", "t2", at)
	b.AccountID = "B"
	b.IdempotencyKey = &key
	require.NoError(t, store.InsertTrades(ctx, []models.Trade{a, b}))

	found, err := store.FindTradesByIdempotencyKey(ctx, "u1", key)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	dup := testTrade("u1", "t3", at)
	dup.AccountID = "A"
	dup.IdempotencyKey = &key
	assert.ErrorIs(t, store.InsertTrades(ctx, []models.Trade{dup}), repository.ErrConflict)
}

func TestPutStatsOverwritesWholeRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := models.ZeroStats("u1")
	first.TradeCount = 3
	first.Wins = 2
	first.BestWin = decimal.NewFromInt(15)
	first.LastUpdated = time.Now().UTC()
	first.Source = models.StatsSourceStreamInsert
	require.NoError(t, store.PutStats(ctx, &first))

	second := models.ZeroStats("u1")
	second.TradeCount = 1
	second.LastUpdated = time.Now().UTC()
	second.Source = models.StatsSourcePeriodicJob
	require.NoError(t, store.PutStats(ctx, &second))

	got, err := store.GetStats(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.TradeCount)
	assert.EqualValues(t, 0, got.Wins)
	assert.True(t, got.BestWin.IsZero())
	assert.Equal(t, models.StatsSourcePeriodicJob, got.Source)

	_, err = store.GetStats(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListStatsUserIDsPages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		row := models.ZeroStats(id)
		row.LastUpdated = time.Now().UTC()
		require.NoError(t, store.PutStats(ctx, &row))
	}
	ids, next, err := store.ListStatsUserIDs(ctx, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	require.NotEmpty(t, next)
	ids, next, err = store.ListStatsUserIDs(ctx, next, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids)
	assert.Empty(t, next)
}

func TestToggleRuleFlipsCompleted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateRule(ctx, &models.Rule{UserID: "u1", RuleID: "r1", Rule: "No revenge trades", IsActive: true}))

	got, err := store.ToggleRule(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.True(t, got.Completed)
	got, err = store.ToggleRule(ctx, "u1", "r1")
	require.NoError(t, err)
	assert.False(t, got.Completed)

	_, err = store.ToggleRule(ctx, "u1", "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestParkedChangesLeavePendingList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.InsertTrades(ctx, []models.Trade{
		testTrade("u1", "t1", at),
		testTrade("u1", "t2", at),
		testTrade("u1", "t3", at),
	}))
	changes, err := store.ListPendingChanges(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, changes, 3)

	require.NoError(t, store.ParkChanges(ctx, []uint64{changes[0].ID}, at))
	pending, err := store.ListPendingChanges(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, changes[1].ID, pending[0].ID)

	after, err := store.ListPendingChanges(ctx, changes[1].ID, 10)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, changes[2].ID, after[0].ID)

	all, err := store.ListChangesByUser(ctx, "u1", time.Time{}, 10)
	require.NoError(t, err)
	require.NotNil(t, all[0].ParkedAt)
}

func TestUpdateProfileCreatesThenLocksRow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetProfile(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	p, err := store.UpdateProfile(ctx, "u1", func(p *models.UserProfile) error {
		opts := p.SavedOptions.Data()
		opts["symbols"] = append(opts["symbols"], "EURUSD")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"EURUSD"}, p.SavedOptions.Data()["symbols"])

	boom := errors.New("boom")
	_, err = store.UpdateProfile(ctx, "u1", func(p *models.UserProfile) error { return boom })
	assert.ErrorIs(t, err, boom)

	got, err := store.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"EURUSD"}, got.SavedOptions.Data()["symbols"])
	assert.Equal(t, "UTC", got.Preferences.Data().Timezone)
}
