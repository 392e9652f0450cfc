// Package store defines the minimal key/value contract the cache facade sits
// on, plus the bundled adapters: an in-memory store with active expiration, a
// bbolt-backed persistent store, and a redis-backed store.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when a key is absent or its entry expired.
var ErrNotFound = errors.New("store: not found")

// Store is the backing-store contract. Implementations must be safe for
// concurrent use by multiple goroutines.
//
// A ttl of 0 means the entry never expires. Get must reflect expiry: an
// expired entry is reported as ErrNotFound, never returned.
type Store interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Evict(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Size(ctx context.Context) (int, error)
}
