package quota

import (
	"context"
	"time"
)

// Store is a fixed-window counter backend. Incr atomically increments the
// counter for key in the window bucket covering the current time and returns
// the post-increment count together with the time remaining until the bucket
// resets.
//
// The in-memory implementation is process-local by design; RedisStore is the
// drop-in shared alternative when the gateway runs more than one replica.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
}
