// Package store provides counter backends for the sliding-window limiter.
package store

import (
	"context"
	"time"
)

// Store is a counter store with atomic increment semantics. Implementations
// must guarantee that concurrent IncrementWithExpiry calls on one key never
// lose updates; the limiter relies on that to keep windows accurate under
// concurrent traffic.
type Store interface {
	// Get retrieves the counter value for key.
	Get(ctx context.Context, key string) (int64, error)

	// IncrementWithExpiry atomically adds delta to key, setting the
	// expiration when the key is created, and returns the new value.
	IncrementWithExpiry(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error)

	// Delete removes the key.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ErrKeyNotFound is returned by Get when a key does not exist or has expired.
type ErrKeyNotFound struct {
	Key string
}

func (e *ErrKeyNotFound) Error() string {
	return "key not found: " + e.Key
}

// IsKeyNotFound reports whether err is an ErrKeyNotFound.
func IsKeyNotFound(err error) bool {
	_, ok := err.(*ErrKeyNotFound)
	return ok
}
