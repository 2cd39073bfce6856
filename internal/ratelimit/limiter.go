// Package ratelimit implements sliding-window request accounting over a
// pluggable counter store.
package ratelimit

import (
	"context"
	"time"
)

// Limiter admits or denies single events per key.
type Limiter interface {
	// Allow records one event for key and reports whether it fits the
	// configured window.
	Allow(ctx context.Context, key string) (*Result, error)

	// Reset clears the window state for key.
	Reset(ctx context.Context, key string) error
}

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}
