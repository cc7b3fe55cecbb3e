package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const payloadField = "payload"

// RedisPublisher appends records to a Redis stream.
type RedisPublisher struct {
	Client redis.Cmdable
	Stream string
	// MaxLen trims the stream approximately. Zero keeps everything.
	MaxLen int64
	Logger *zap.Logger
}

func (p *RedisPublisher) Publish(ctx context.Context, records []Record) []string {
	if p == nil || p.Client == nil {
		return eventIDs(records)
	}
	var failed []string
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err == nil {
			err = p.Client.XAdd(ctx, &redis.XAddArgs{
				Stream: p.Stream,
				MaxLen: p.MaxLen,
				Approx: p.MaxLen > 0,
				Values: map[string]interface{}{
					"event_id":   rec.EventID,
					payloadField: string(raw),
				},
			}).Err()
		}
		if err != nil {
			failed = append(failed, rec.EventID)
			if p.Logger != nil {
				p.Logger.Warn("publish change failed", zap.String("event_id", rec.EventID), zap.Error(err))
			}
		}
	}
	return failed
}

// RedisConsumer reads a Redis stream through a consumer group and acknowledges
// every message except the ones the handler reports as failed. Unacknowledged
// messages are reclaimed after ClaimMinIdle and handed to the handler again.
type RedisConsumer struct {
	Client       redis.Cmdable
	Stream       string
	Group        string
	Consumer     string
	BatchSize    int64
	Block        time.Duration
	ClaimMinIdle time.Duration
	Handler      BatchHandler
	Logger       *zap.Logger

	// claimStart is where the next XAUTOCLAIM resumes; it wraps back to 0-0 when the scan completes.
	claimStart string
}

func (c *RedisConsumer) EnsureGroup(ctx context.Context) error {
	err := c.Client.XGroupCreateMkStream(ctx, c.Stream, c.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", c.Group, err)
	}
	return nil
}

func (c *RedisConsumer) Run(ctx context.Context) error {
	if c == nil || c.Client == nil || c.Handler == nil {
		return nil
	}
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := c.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			if c.Logger != nil {
				c.Logger.Warn("change consumer poll failed", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}
	}
}

// RunOnce reclaims stale pending messages, then reads new ones. It returns the number of messages acknowledged.
func (c *RedisConsumer) RunOnce(ctx context.Context) (int, error) {
	count := c.BatchSize
	if count <= 0 {
		count = 25
	}
	acked := 0

	if c.ClaimMinIdle > 0 {
		start := c.claimStart
		if start == "" {
			start = "0-0"
		}
		claimed, next, err := c.Client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.Stream,
			Group:    c.Group,
			Consumer: c.Consumer,
			MinIdle:  c.ClaimMinIdle,
			Start:    start,
			Count:    count,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return 0, fmt.Errorf("autoclaim: %w", err)
		}
		c.claimStart = next
		n, err := c.handle(ctx, claimed)
		acked += n
		if err != nil {
			return acked, err
		}
	}

	streams, err := c.Client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.Group,
		Consumer: c.Consumer,
		Streams:  []string{c.Stream, ">"},
		Count:    count,
		Block:    c.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return acked, nil
	}
	if err != nil {
		return acked, fmt.Errorf("readgroup: %w", err)
	}
	for _, s := range streams {
		n, err := c.handle(ctx, s.Messages)
		acked += n
		if err != nil {
			return acked, err
		}
	}
	return acked, nil
}

func (c *RedisConsumer) handle(ctx context.Context, msgs []redis.XMessage) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}
	batch := decodeMessages(msgs)
	for _, bad := range batch.undecodable {
		if c.Logger != nil {
			c.Logger.Warn("acking undecodable change message", zap.String("message_id", bad))
		}
	}
	var failed []string
	if len(batch.records) > 0 {
		failed = c.Handler.HandleBatch(ctx, batch.records)
	}
	ids := batch.ackable(failed)
	if len(ids) == 0 {
		return 0, nil
	}
	if err := c.Client.XAck(ctx, c.Stream, c.Group, ids...).Err(); err != nil {
		return 0, fmt.Errorf("xack: %w", err)
	}
	return len(ids), nil
}

type decodedBatch struct {
	records     []Record
	messageIDs  []string
	undecodable []string
}

func decodeMessages(msgs []redis.XMessage) decodedBatch {
	var out decodedBatch
	for _, msg := range msgs {
		rec, err := decodeMessage(msg)
		if err != nil {
			out.undecodable = append(out.undecodable, msg.ID)
			continue
		}
		out.records = append(out.records, rec)
		out.messageIDs = append(out.messageIDs, msg.ID)
	}
	return out
}

func decodeMessage(msg redis.XMessage) (Record, error) {
	raw, ok := msg.Values[payloadField]
	if !ok {
		return Record{}, errors.New("missing payload")
	}
	var body []byte
	switch v := raw.(type) {
	case string:
		body = []byte(v)
	case []byte:
		body = v
	default:
		return Record{}, fmt.Errorf("unexpected payload type %T", raw)
	}
	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return Record{}, err
	}
	if rec.EventID == "" {
		return Record{}, ErrMissingEventID
	}
	return rec, nil
}

// ackable returns the message ids to acknowledge: every undecodable message and
// every record whose event id was not reported failed.
func (b decodedBatch) ackable(failed []string) []string {
	skip := make(map[string]struct{}, len(failed))
	for _, id := range failed {
		skip[id] = struct{}{}
	}
	out := make([]string, 0, len(b.messageIDs)+len(b.undecodable))
	out = append(out, b.undecodable...)
	for i, rec := range b.records {
		if _, ok := skip[rec.EventID]; ok {
			continue
		}
		out = append(out, b.messageIDs[i])
	}
	return out
}

// RedisDeduper remembers processed event ids for TTL.
type RedisDeduper struct {
	Client redis.Cmdable
	Prefix string
	TTL    time.Duration
}

// Claim reports true the first time an event id is seen.
func (d *RedisDeduper) Claim(ctx context.Context, eventID string) (bool, error) {
	ttl := d.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return d.Client.SetNX(ctx, d.key(eventID), 1, ttl).Result()
}

// Release forgets an event id so a redelivery is applied again.
func (d *RedisDeduper) Release(ctx context.Context, eventID string) error {
	return d.Client.Del(ctx, d.key(eventID)).Err()
}

func (d *RedisDeduper) key(eventID string) string {
	prefix := d.Prefix
	if prefix == "" {
		prefix = "tradestats:event:"
	}
	return prefix + eventID
}
