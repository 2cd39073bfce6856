package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lowkeylabs/authgate/internal/ratelimit/store"
)

const defaultPrecision = 10

// SlidingWindowLimiter counts events in a rolling window by splitting it
// into precision sub-windows kept in the counter store. The store's atomic
// increment guarantees that concurrent callers near the limit cannot both
// be admitted past the true maximum.
type SlidingWindowLimiter struct {
	store     store.Store
	limit     int
	window    time.Duration
	precision int
	logger    *zap.Logger
}

// NewSlidingWindowLimiter creates a limiter admitting at most limit events
// per window for each key.
func NewSlidingWindowLimiter(s store.Store, limit int, window time.Duration, logger *zap.Logger) *SlidingWindowLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlidingWindowLimiter{
		store:     s,
		limit:     limit,
		window:    window,
		precision: defaultPrecision,
		logger:    logger,
	}
}

// Allow implements Limiter. The current sub-window is incremented before
// the comparison, so two concurrent calls can never both observe the same
// count and slip past the maximum together; denied events still occupy
// their slot for the rest of the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	subSize := l.subWindowSize()
	current := time.Now().UnixMilli() / subSize

	var previous int64
	for i := 1; i < l.precision; i++ {
		count, err := l.store.Get(ctx, subKey(key, current-int64(i)))
		if err != nil {
			if store.IsKeyNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("read window %q: %w", key, err)
		}
		previous += count
	}

	expiry := l.window + time.Duration(subSize)*time.Millisecond
	value, err := l.store.IncrementWithExpiry(ctx, subKey(key, current), 1, expiry)
	if err != nil {
		return nil, fmt.Errorf("increment window %q: %w", key, err)
	}

	total := previous + value
	allowed := int(total) <= l.limit

	remaining := l.limit - int(total)
	if remaining < 0 {
		remaining = 0
	}
	var retryAfter time.Duration
	if !allowed {
		retryAfter = time.Duration(subSize) * time.Millisecond
	}

	return &Result{
		Allowed:    allowed,
		Limit:      l.limit,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}, nil
}

// Reset implements Limiter.
func (l *SlidingWindowLimiter) Reset(ctx context.Context, key string) error {
	subSize := l.subWindowSize()
	current := time.Now().UnixMilli() / subSize
	for i := 0; i < l.precision; i++ {
		if err := l.store.Delete(ctx, subKey(key, current-int64(i))); err != nil {
			l.logger.Warn("failed to delete sub-window", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

func (l *SlidingWindowLimiter) subWindowSize() int64 {
	size := l.window.Milliseconds() / int64(l.precision)
	if size < 1 {
		size = 1
	}
	return size
}

func subKey(key string, index int64) string {
	return key + ":sw:" + strconv.FormatInt(index, 10)
}
