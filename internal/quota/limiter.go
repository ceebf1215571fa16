package quota

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	Reset      time.Time
}

// RetryAfterSeconds is the Retry-After header value: seconds until the
// window resets, rounded up so clients never retry early.
func (d Decision) RetryAfterSeconds() int {
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// Limiter enforces a fixed-window request cap per key.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
}

func NewLimiter(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window}
}

// Allow consumes one unit for key and reports whether the request may
// proceed. Store failures let the request through: an unreachable counter
// backend should degrade quota enforcement, not take chat down with it.
func (l *Limiter) Allow(ctx context.Context, key string) Decision {
	count, ttl, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		slog.Warn("quota store unavailable, allowing request", "key", key, "error", err)
		return Decision{Allowed: true, Limit: l.limit, Reset: time.Now().Add(l.window)}
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= int64(l.limit),
		Limit:      l.limit,
		Remaining:  remaining,
		RetryAfter: ttl,
		Reset:      time.Now().Add(ttl),
	}
}
