package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/vulturelabs/vulturebot/internal/domain"
)

// streamKey is the Redis stream all sessions publish ticks to; each entry
// carries its session id so consumers can demux.
const streamKey = "vulturebot:ticks"

// TickStream publishes tick records to a capped Redis stream via XADD with
// approximate MAXLEN trimming.
type TickStream struct {
	rdb    *redis.Client
	maxLen int64
}

// NewTickStream creates a tick stream writer. maxLen bounds the stream
// length approximately; zero or negative disables trimming.
func NewTickStream(c *Client, maxLen int64) *TickStream {
	return &TickStream{rdb: c.Underlying(), maxLen: maxLen}
}

// Append publishes one tick record for the session.
func (t *TickStream) Append(ctx context.Context, sessionID string, tick domain.TickRecord) error {
	payload, err := json.Marshal(tick)
	if err != nil {
		return fmt.Errorf("redis: marshal tick %d: %w", tick.TickNumber, err)
	}

	args := &redis.XAddArgs{
		Stream: streamKey,
		Values: map[string]interface{}{
			"session_id": sessionID,
			"payload":    payload,
		},
	}
	if t.maxLen > 0 {
		args.MaxLen = t.maxLen
		args.Approx = true
	}

	if err := t.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: append tick %d: %w", tick.TickNumber, err)
	}
	return nil
}

// Read returns up to count ticks after lastID ("0" for the beginning, "$"
// for new entries only). No pending entries is not an error.
func (t *TickStream) Read(ctx context.Context, lastID string, count int) ([]domain.TickRecord, string, error) {
	results, err := t.rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{streamKey, lastID},
		Count:   int64(count),
		Block:   -1,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, lastID, nil
		}
		return nil, lastID, fmt.Errorf("redis: read ticks: %w", err)
	}

	var ticks []domain.TickRecord
	nextID := lastID
	for _, s := range results {
		for _, msg := range s.Messages {
			nextID = msg.ID
			raw, ok := msg.Values["payload"].(string)
			if !ok {
				continue
			}
			var tick domain.TickRecord
			if err := json.Unmarshal([]byte(raw), &tick); err != nil {
				continue
			}
			ticks = append(ticks, tick)
		}
	}
	return ticks, nextID, nil
}
