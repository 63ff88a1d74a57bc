package alert

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStreamSink appends alerts to a Redis stream with XADD.
type RedisStreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisStreamSink(client *redis.Client, stream string) *RedisStreamSink {
	return &RedisStreamSink{client: client, stream: stream, maxLen: 10000}
}

func (s *RedisStreamSink) Name() string { return "redis" }

func (s *RedisStreamSink) Publish(ctx context.Context, a Alert) error {
	_, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":             a.ID,
			"occurred_at":    a.OccurredAt.UTC().Format(time.RFC3339Nano),
			"camera":         a.Camera,
			"event":          a.Event,
			"caption":        a.Caption,
			"required_count": strconv.Itoa(a.RequiredCount),
			"window_seconds": strconv.Itoa(a.WindowSeconds),
			"verdict":        a.Verdict,
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}
