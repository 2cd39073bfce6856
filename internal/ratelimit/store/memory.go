package store

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Bounds CAS retries so contention cannot spin forever.
const maxCASRetries = 100

type entry struct {
	value      int64
	expiration time.Time
}

// MemoryStore implements Store with in-process counters. Increments use a
// compare-and-swap loop on immutable entries, so concurrent callers on the
// same key serialize without a global lock.
type MemoryStore struct {
	data    sync.Map
	cleanup *time.Ticker
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewMemoryStore creates an in-memory store that sweeps expired counters
// once a minute.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		cleanup: time.NewTicker(time.Minute),
		done:    make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	value, ok := s.data.Load(key)
	if !ok {
		return 0, &ErrKeyNotFound{Key: key}
	}
	e := value.(*entry)
	if expired(e, time.Now()) {
		s.data.Delete(key)
		return 0, &ErrKeyNotFound{Key: key}
	}
	return e.value, nil
}

// IncrementWithExpiry implements Store.
func (s *MemoryStore) IncrementWithExpiry(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	for retries := 0; retries < maxCASRetries; retries++ {
		value, ok := s.data.Load(key)
		if !ok {
			fresh := &entry{value: delta, expiration: time.Now().Add(expiration)}
			if actual, loaded := s.data.LoadOrStore(key, fresh); !loaded {
				return delta, nil
			} else {
				value = actual
			}
		}

		e := value.(*entry)
		var next *entry
		if expired(e, time.Now()) {
			next = &entry{value: delta, expiration: time.Now().Add(expiration)}
		} else {
			next = &entry{value: e.value + delta, expiration: e.expiration}
		}
		if s.data.CompareAndSwap(key, e, next) {
			return next.value, nil
		}
	}

	return 0, fmt.Errorf("increment %q: max retries (%d) exceeded", key, maxCASRetries)
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.data.Delete(key)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.cleanup.Stop()
	close(s.done)
	return nil
}

func (s *MemoryStore) sweepLoop() {
	for {
		select {
		case <-s.cleanup.C:
			now := time.Now()
			s.data.Range(func(key, value any) bool {
				if expired(value.(*entry), now) {
					s.data.Delete(key)
				}
				return true
			})
		case <-s.done:
			return
		}
	}
}

func expired(e *entry, now time.Time) bool {
	return !e.expiration.IsZero() && now.After(e.expiration)
}
