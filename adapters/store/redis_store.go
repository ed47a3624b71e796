package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/layer-3/mailgate/ports"
)

const keyPrefix = "rate_limit:"

// RedisStore keeps each identifier's window in a sorted set scored by the
// request timestamp, with a TTL equal to the window duration. The trim,
// append, count and expire steps run in a single transaction so concurrent
// checks for one identifier cannot observe a stale count.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed rate store. The client connects
// lazily on first use, so an unreachable Redis surfaces as per-call errors
// rather than a construction failure.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Hit(ctx context.Context, identifier string, now time.Time, window time.Duration) (ports.Window, error) {
	key := keyPrefix + identifier
	windowStart := now.Add(-window)

	var (
		card   *redis.IntCmd
		oldest *redis.ZSliceCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "0", formatScore(windowStart))
		pipe.ZAdd(ctx, key, redis.Z{Score: score(now), Member: member(now)})
		card = pipe.ZCard(ctx, key)
		oldest = pipe.ZRangeWithScores(ctx, key, 0, 0)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return ports.Window{}, err
	}
	return windowFromResults(card, oldest), nil
}

func (s *RedisStore) Peek(ctx context.Context, identifier string, now time.Time, window time.Duration) (ports.Window, error) {
	key := keyPrefix + identifier
	windowStart := now.Add(-window)

	var (
		card   *redis.IntCmd
		oldest *redis.ZSliceCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "0", formatScore(windowStart))
		card = pipe.ZCard(ctx, key)
		oldest = pipe.ZRangeWithScores(ctx, key, 0, 0)
		return nil
	})
	if err != nil {
		return ports.Window{}, err
	}
	return windowFromResults(card, oldest), nil
}

func (s *RedisStore) Drop(ctx context.Context, identifier string, ts time.Time) error {
	return s.client.ZRem(ctx, keyPrefix+identifier, member(ts)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func formatScore(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// member encodes the timestamp at nanosecond precision so Drop can remove
// exactly the entry a rejected Hit appended.
func member(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

func windowFromResults(card *redis.IntCmd, oldest *redis.ZSliceCmd) ports.Window {
	w := ports.Window{Count: card.Val()}
	if zs := oldest.Val(); len(zs) > 0 {
		w.Oldest = time.UnixMilli(int64(zs[0].Score))
	}
	return w
}

var _ ports.RateStore = (*RedisStore)(nil)
