package changefeed_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradejournal/internal/changefeed"
	"tradejournal/internal/config"
	"tradejournal/internal/db"
	"tradejournal/internal/models"
	gormrepository "tradejournal/internal/repository/gorm"
	"tradejournal/internal/stats"
)

func newStore(t *testing.T) *gormrepository.Store {
	t.Helper()
	conn, err := db.Open(config.DBConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "journal.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, db.AutoMigrate(conn))
	return gormrepository.New(conn.Gorm)
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func trade(userID, tradeID string, exit *decimal.Decimal) models.Trade {
	return models.Trade{
		UserID:     userID,
		TradeID:    tradeID,
		AccountID:  models.AllAccounts,
		Symbol:     "EURUSD",
		Side:       models.SideBuy,
		Quantity:   decimal.NewFromInt(2),
		EntryPrice: dec("100"),
		ExitPrice:  exit,
		OpenDate:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestDirectPipelineFollowsInsertsAndDeletes(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	processor := &stats.ChangeProcessor{Trades: store, Stats: store}
	relay := &changefeed.Relay{
		Changes:   store,
		Publisher: &changefeed.DirectPublisher{Handler: processor},
		BatchSize: 10,
	}

	require.NoError(t, store.InsertTrades(ctx, []models.Trade{
		trade("u1", "open", nil),
		trade("u1", "closed", dec("110")),
	}))
	n, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	row, err := store.GetStats(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, row.TradeCount)
	assert.EqualValues(t, 1, row.Wins)
	assert.True(t, row.RealizedPnL.Equal(decimal.NewFromInt(20)), row.RealizedPnL.String())
	assert.Equal(t, models.StatsSourceStreamRebuild, row.Source)

	require.NoError(t, store.DeleteTrade(ctx, "u1", "closed"))
	_, err = relay.RunOnce(ctx)
	require.NoError(t, err)

	row, err = store.GetStats(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, row.TradeCount)
	assert.Zero(t, row.Wins)
	assert.True(t, row.RealizedPnL.IsZero())

	require.NoError(t, store.DeleteTrade(ctx, "u1", "open"))
	_, err = relay.RunOnce(ctx)
	require.NoError(t, err)

	row, err = store.GetStats(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, row.SameAggregate(models.ZeroStats("u1")))

	pending, err := store.ListPendingChanges(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRedisPipelineCountsRedeliveredInsertOnce(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	processor := &stats.ChangeProcessor{
		Trades: store,
		Stats:  store,
		Dedup:  &changefeed.RedisDeduper{Client: client},
	}
	publisher := &changefeed.RedisPublisher{Client: client, Stream: "trades:changes"}
	relay := &changefeed.Relay{Changes: store, Publisher: publisher, BatchSize: 10}
	consumer := &changefeed.RedisConsumer{
		Client:    client,
		Stream:    "trades:changes",
		Group:     "trade-stats",
		Consumer:  "c1",
		BatchSize: 10,
		Block:     -1,
		Handler:   processor,
	}
	require.NoError(t, consumer.EnsureGroup(ctx))

	require.NoError(t, store.InsertTrades(ctx, []models.Trade{trade("u1", "open", nil)}))
	changes, err := store.ListPendingChanges(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	rec, err := changefeed.FromChange(changes[0])
	require.NoError(t, err)

	_, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	// The same insert arrives a second time, as after a relay crash before marking it published.
	require.Empty(t, publisher.Publish(ctx, []changefeed.Record{rec}))

	acked, err := consumer.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, acked)

	row, err := store.GetStats(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, row.TradeCount)
	assert.Equal(t, models.StatsSourceStreamInsert, row.Source)
}
