package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "quota:"

// RedisStore implements Store on a shared Redis instance so multiple gateway
// replicas agree on one counter. Bucket boundaries are derived from the key
// name, so INCR inside a pipeline is all the atomicity required.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	now := time.Now()
	bucketStart := now.Truncate(window)
	reset := bucketStart.Add(window)
	bucketKey := fmt.Sprintf("%s%s:%d", redisKeyPrefix, key, bucketStart.UnixMilli())

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, bucketKey)
	// Keep the key a little past its window so late readers still see it.
	pipe.Expire(ctx, bucketKey, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("quota incr %s: %w", key, err)
	}

	return incr.Val(), reset.Sub(now), nil
}
