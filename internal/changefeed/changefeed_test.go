package changefeed

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"tradejournal/internal/models"
)

func TestRecordOwnerPrefersImages(t *testing.T) {
	rec := Record{UserID: "envelope"}
	assert.Equal(t, "envelope", rec.Owner())

	rec.OldImage = &models.TradeImage{UserID: "old"}
	assert.Equal(t, "old", rec.Owner())

	rec.NewImage = &models.TradeImage{UserID: "new"}
	assert.Equal(t, "new", rec.Owner())

	assert.Equal(t, "", Record{}.Owner())
}

func TestFromChangeDecodesImages(t *testing.T) {
	exit := decimal.NewFromInt(110)
	raw, err := json.Marshal(models.TradeImage{UserID: "u1", TradeID: "t1", Side: "BUY", ExitPrice: &exit})
	require.NoError(t, err)

	rec, err := FromChange(models.TradeChange{
		EventID:   "01HX",
		EventName: models.ChangeInsert,
		UserID:    "u1",
		TradeID:   "t1",
		NewImage:  datatypes.JSON(raw),
	})
	require.NoError(t, err)
	assert.Nil(t, rec.OldImage)
	require.NotNil(t, rec.NewImage)
	assert.True(t, rec.NewImage.Closed())

	_, err = FromChange(models.TradeChange{EventID: "bad", NewImage: datatypes.JSON(`{"userId":`)})
	assert.Error(t, err)

	_, err = FromChange(models.TradeChange{ID: 7, EventName: models.ChangeInsert, UserID: "u1"})
	assert.ErrorIs(t, err, ErrMissingEventID)
}

func message(t *testing.T, id string, rec Record) redis.XMessage {
	t.Helper()
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	return redis.XMessage{ID: id, Values: map[string]interface{}{payloadField: string(raw)}}
}

func TestDecodedBatchAcksAllButFailed(t *testing.T) {
	msgs := []redis.XMessage{
		message(t, "1-0", Record{EventID: "e1", EventName: models.ChangeInsert}),
		{ID: "2-0", Values: map[string]interface{}{payloadField: "not json"}},
		message(t, "3-0", Record{EventID: "e3", EventName: models.ChangeModify}),
		{ID: "4-0", Values: map[string]interface{}{"other": "x"}},
		message(t, "5-0", Record{EventID: "e5", EventName: models.ChangeRemove}),
	}
	batch := decodeMessages(msgs)
	require.Len(t, batch.records, 3)
	assert.Equal(t, []string{"2-0", "4-0"}, batch.undecodable)

	assert.ElementsMatch(t, []string{"1-0", "2-0", "4-0", "5-0"}, batch.ackable([]string{"e3"}))
	assert.ElementsMatch(t, []string{"1-0", "2-0", "3-0", "4-0", "5-0"}, batch.ackable(nil))
}

func TestDecodeMessageRequiresEventID(t *testing.T) {
	_, err := decodeMessage(message(t, "1-0", Record{EventName: models.ChangeInsert}))
	assert.Error(t, err)
}

type stubChanges struct {
	rows      []models.TradeChange
	published []uint64
	retried   []uint64
	parked    []uint64
}

func (s *stubChanges) ListPendingChanges(ctx context.Context, afterID uint64, limit int) ([]models.TradeChange, error) {
	var out []models.TradeChange
	for _, row := range s.rows {
		if row.PublishedAt == nil && row.ParkedAt == nil && row.ID > afterID {
			out = append(out, row)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubChanges) ListChangesByUser(ctx context.Context, userID string, since time.Time, limit int) ([]models.TradeChange, error) {
	return nil, nil
}

func (s *stubChanges) each(ids []uint64, fn func(row *models.TradeChange)) {
	for i := range s.rows {
		for _, id := range ids {
			if s.rows[i].ID == id {
				fn(&s.rows[i])
			}
		}
	}
}

func (s *stubChanges) MarkChangesPublished(ctx context.Context, ids []uint64, at time.Time) error {
	s.published = append(s.published, ids...)
	s.each(ids, func(row *models.TradeChange) {
		stamp := at
		row.PublishedAt = &stamp
	})
	return nil
}

func (s *stubChanges) IncrementChangeAttempts(ctx context.Context, ids []uint64) error {
	s.retried = append(s.retried, ids...)
	s.each(ids, func(row *models.TradeChange) { row.Attempts++ })
	return nil
}

func (s *stubChanges) ParkChanges(ctx context.Context, ids []uint64, at time.Time) error {
	s.parked = append(s.parked, ids...)
	s.each(ids, func(row *models.TradeChange) {
		stamp := at
		row.ParkedAt = &stamp
	})
	return nil
}

type handlerFunc func(ctx context.Context, records []Record) []string

func (f handlerFunc) HandleBatch(ctx context.Context, records []Record) []string {
	return f(ctx, records)
}

func TestRelayMarksOnlyDeliveredChanges(t *testing.T) {
	changes := &stubChanges{rows: []models.TradeChange{
		{ID: 1, EventID: "e1", EventName: models.ChangeInsert, UserID: "u1"},
		{ID: 2, EventID: "e2", EventName: models.ChangeModify, UserID: "u1"},
		{ID: 3, EventID: "e3", EventName: models.ChangeRemove, UserID: "u2", OldImage: datatypes.JSON(`{broken`)},
	}}
	var seen []string
	relay := &Relay{
		Changes: changes,
		Publisher: &DirectPublisher{Handler: handlerFunc(func(ctx context.Context, records []Record) []string {
			for _, rec := range records {
				seen = append(seen, rec.EventID)
			}
			return []string{"e2"}
		})},
	}

	n, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"e1", "e2"}, seen)
	assert.ElementsMatch(t, []uint64{1, 3}, changes.published)
	assert.Equal(t, []uint64{2}, changes.retried)

	seen = nil
	_, err = relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, seen)
}

func TestDirectPublisherWithoutHandlerFailsEverything(t *testing.T) {
	var p *DirectPublisher
	failed := p.Publish(context.Background(), []Record{{EventID: "a"}, {EventID: "b"}})
	assert.Equal(t, []string{"a", "b"}, failed)
}

func TestRelayDeliversPastFailingRows(t *testing.T) {
	changes := &stubChanges{rows: []models.TradeChange{
		{ID: 1, EventID: "p1", EventName: models.ChangeInsert, UserID: "poison"},
		{ID: 2, EventID: "p2", EventName: models.ChangeInsert, UserID: "poison"},
		{ID: 3, EventID: "p3", EventName: models.ChangeInsert, UserID: "poison"},
		{ID: 4, EventID: "g1", EventName: models.ChangeInsert, UserID: "good"},
	}}
	var delivered []string
	relay := &Relay{
		Changes:     changes,
		BatchSize:   3,
		MaxAttempts: 3,
		Publisher: &DirectPublisher{Handler: handlerFunc(func(ctx context.Context, records []Record) []string {
			var failed []string
			for _, rec := range records {
				if rec.UserID == "poison" {
					failed = append(failed, rec.EventID)
					continue
				}
				delivered = append(delivered, rec.EventID)
			}
			return failed
		})},
	}

	n, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"g1"}, delivered)
	assert.Equal(t, []uint64{4}, changes.published)

	for i := 0; i < 2; i++ {
		_, err = relay.RunOnce(context.Background())
		require.NoError(t, err)
	}
	assert.ElementsMatch(t, []uint64{1, 2, 3}, changes.parked)
	for _, row := range changes.rows[:3] {
		assert.Equal(t, 3, row.Attempts)
		assert.Nil(t, row.PublishedAt)
	}

	pending, err := changes.ListPendingChanges(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRelayDropsRowsWithoutEventID(t *testing.T) {
	changes := &stubChanges{rows: []models.TradeChange{
		{ID: 1, EventName: models.ChangeInsert, UserID: "u1"},
		{ID: 2, EventID: "e2", EventName: models.ChangeInsert, UserID: "u1"},
	}}
	var seen []string
	relay := &Relay{
		Changes: changes,
		Publisher: &DirectPublisher{Handler: handlerFunc(func(ctx context.Context, records []Record) []string {
			for _, rec := range records {
				seen = append(seen, rec.EventID)
			}
			return nil
		})},
	}
	n, err := relay.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"e2"}, seen)
}
