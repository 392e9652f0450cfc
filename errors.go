package cachefront

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPattern is returned by Register for a malformed key template.
	ErrInvalidPattern = errors.New("cachefront: invalid pattern")
	// ErrKeyNotFound is returned by Get for a cache-only miss.
	ErrKeyNotFound = errors.New("cachefront: key not found")
	// ErrNoRoute is returned by Update when no registered route matches.
	ErrNoRoute = errors.New("cachefront: no route for key")
)

// OriginError wraps a failure from a caller-supplied origin callback.
type OriginError struct {
	Op  string // "get", "put", "update" or "evict"
	Key string
	Err error
}

func (e *OriginError) Error() string {
	return fmt.Sprintf("cachefront: %s origin callback failed for %q: %v", e.Op, e.Key, e.Err)
}

func (e *OriginError) Unwrap() error { return e.Err }

// FallbackExhaustedError is returned by a read-around Get when the origin
// failed and no cached fallback could be served. Store distinguishes a plain
// cache miss (nil) from a store read that itself errored.
type FallbackExhaustedError struct {
	Key    string
	Origin error
	Store  error
}

func (e *FallbackExhaustedError) Error() string {
	if e.Store != nil {
		return fmt.Sprintf("cachefront: origin read failed for %q and cache fallback errored: %v (origin: %v)", e.Key, e.Store, e.Origin)
	}
	return fmt.Sprintf("cachefront: origin read failed for %q and key is not cached: %v", e.Key, e.Origin)
}

func (e *FallbackExhaustedError) Unwrap() []error {
	if e.Store != nil {
		return []error{e.Origin, e.Store}
	}
	return []error{e.Origin}
}
