package quota

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_SequentialExhaustion(t *testing.T) {
	store := NewMemoryStore()
	l := NewLimiter(store, 5, time.Hour)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d := l.Allow(ctx, "user:alice")
		assert.True(t, d.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, d.Limit)
		assert.Equal(t, 4-i, d.Remaining)
	}

	d := l.Allow(ctx, "user:alice")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Greater(t, d.RetryAfterSeconds(), 0)
	assert.LessOrEqual(t, d.RetryAfter, time.Hour)
}

func TestLimiter_WindowReset(t *testing.T) {
	store := NewMemoryStore()
	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	l := NewLimiter(store, 2, time.Minute)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "k").Allowed)
	assert.True(t, l.Allow(ctx, "k").Allowed)
	assert.False(t, l.Allow(ctx, "k").Allowed)

	// Advance past the window boundary: consumption is allowed again.
	current = current.Add(61 * time.Second)
	d := l.Allow(ctx, "k")
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), 1, time.Hour)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "user:a").Allowed)
	assert.False(t, l.Allow(ctx, "user:a").Allowed)
	assert.True(t, l.Allow(ctx, "user:b").Allowed)
}

// N concurrent consumers racing on a fresh key with limit 1 must produce
// exactly one success.
func TestLimiter_ConcurrentSingleWinner(t *testing.T) {
	l := NewLimiter(NewMemoryStore(), 1, time.Hour)
	ctx := context.Background()

	const n = 64
	var wg sync.WaitGroup
	results := make([]bool, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = l.Allow(ctx, "user:raced").Allowed
		}(i)
	}
	wg.Wait()

	allowed := 0
	for _, ok := range results {
		if ok {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)
}

func TestLimiter_FailsOpenOnStoreError(t *testing.T) {
	l := NewLimiter(failingStore{}, 1, time.Hour)

	d := l.Allow(context.Background(), "k")
	assert.True(t, d.Allowed)
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, assertAnError
}

var assertAnError = errSentinel("store down")

type errSentinel string

func (e errSentinel) Error() string { return string(e) }

func TestMemoryStore_SweepDropsElapsedBuckets(t *testing.T) {
	store := NewMemoryStore()
	current := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	_, _, err := store.Incr(context.Background(), "a", time.Minute)
	require.NoError(t, err)
	_, _, err = store.Incr(context.Background(), "b", time.Minute)
	require.NoError(t, err)

	// Move past both the bucket window and the sweep interval.
	current = current.Add(2 * time.Minute)
	_, _, err = store.Incr(context.Background(), "c", time.Minute)
	require.NoError(t, err)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotContains(t, store.buckets, "a")
	assert.NotContains(t, store.buckets, "b")
	assert.Contains(t, store.buckets, "c")
}
