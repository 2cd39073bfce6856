package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowkeylabs/authgate/internal/ratelimit/store"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) *SlidingWindowLimiter {
	t.Helper()
	s := store.NewMemoryStore()
	t.Cleanup(func() { _ = s.Close() })
	return NewSlidingWindowLimiter(s, limit, window, nil)
}

func TestSlidingWindowLimiter_DeniesBeyondLimit(t *testing.T) {
	limiter := newTestLimiter(t, 10, time.Minute)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		result, err := limiter.Allow(ctx, "role:user")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 10, result.Limit)
		assert.Equal(t, 10-i-1, result.Remaining)
	}

	result, err := limiter.Allow(ctx, "role:user")
	require.NoError(t, err)
	assert.False(t, result.Allowed, "11th request in the window must be denied")
	assert.Zero(t, result.Remaining)
	assert.Positive(t, result.RetryAfter)
}

func TestSlidingWindowLimiter_WindowPasses(t *testing.T) {
	limiter := newTestLimiter(t, 2, 200*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Allow(ctx, "role:guest")
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}
	result, err := limiter.Allow(ctx, "role:guest")
	require.NoError(t, err)
	require.False(t, result.Allowed)

	// Past the window (plus one sub-window of slack) the counters expire
	// and the key is admitted again.
	time.Sleep(300 * time.Millisecond)

	result, err = limiter.Allow(ctx, "role:guest")
	require.NoError(t, err)
	assert.True(t, result.Allowed, "request after the window boundary must be admitted")
}

func TestSlidingWindowLimiter_KeysAreIndependent(t *testing.T) {
	limiter := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	first, err := limiter.Allow(ctx, "role:user")
	require.NoError(t, err)
	require.True(t, first.Allowed)

	exhausted, err := limiter.Allow(ctx, "role:user")
	require.NoError(t, err)
	assert.False(t, exhausted.Allowed)

	other, err := limiter.Allow(ctx, "role:admin")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "a different key has its own window")
}

func TestSlidingWindowLimiter_ConcurrentNeverOverAdmits(t *testing.T) {
	const limit = 10
	const attempts = 50
	limiter := newTestLimiter(t, limit, time.Minute)
	ctx := context.Background()

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := limiter.Allow(ctx, "role:user")
			if err == nil && result.Allowed {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), admitted.Load(),
		"concurrent callers must not be admitted past the maximum")
}

func TestSlidingWindowLimiter_Reset(t *testing.T) {
	limiter := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "role:user")
	require.NoError(t, err)
	denied, err := limiter.Allow(ctx, "role:user")
	require.NoError(t, err)
	require.False(t, denied.Allowed)

	require.NoError(t, limiter.Reset(ctx, "role:user"))

	result, err := limiter.Allow(ctx, "role:user")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}
