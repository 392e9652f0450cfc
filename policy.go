package cachefront

import (
	"fmt"
	"time"
)

// ReadStrategy selects how Get serves a key.
type ReadStrategy int

const (
	// ReadCacheOnly serves from the store only; a miss is ErrKeyNotFound.
	ReadCacheOnly ReadStrategy = iota
	// ReadThrough serves from the store, falling back to the origin on a
	// miss and populating the store with the result.
	ReadThrough
	// ReadAround always asks the origin first, falling back to the store
	// only when the origin fails.
	ReadAround
)

func (s ReadStrategy) String() string {
	switch s {
	case ReadCacheOnly:
		return "cache-only"
	case ReadThrough:
		return "read-through"
	case ReadAround:
		return "read-around"
	}
	return fmt.Sprintf("ReadStrategy(%d)", int(s))
}

// ParseReadStrategy parses the configuration names "cache-only",
// "read-through" and "read-around".
func ParseReadStrategy(s string) (ReadStrategy, error) {
	switch s {
	case "cache-only":
		return ReadCacheOnly, nil
	case "read-through":
		return ReadThrough, nil
	case "read-around":
		return ReadAround, nil
	}
	return 0, fmt.Errorf("cachefront: unknown read strategy %q", s)
}

// WriteStrategy selects how Put, Update and Evict propagate to the origin.
type WriteStrategy int

const (
	// WriteCacheOnly mutates the store only.
	WriteCacheOnly WriteStrategy = iota
	// WriteThrough calls the origin first and mutates the store only after
	// the origin call succeeds.
	WriteThrough
	// WriteBack mutates the store immediately and propagates to the origin
	// asynchronously with retries.
	WriteBack
)

func (s WriteStrategy) String() string {
	switch s {
	case WriteCacheOnly:
		return "cache-only"
	case WriteThrough:
		return "write-through"
	case WriteBack:
		return "write-back"
	}
	return fmt.Sprintf("WriteStrategy(%d)", int(s))
}

// ParseWriteStrategy parses the configuration names "cache-only",
// "write-through" and "write-back".
func ParseWriteStrategy(s string) (WriteStrategy, error) {
	switch s {
	case "cache-only":
		return WriteCacheOnly, nil
	case "write-through":
		return WriteThrough, nil
	case "write-back":
		return WriteBack, nil
	}
	return 0, fmt.Errorf("cachefront: unknown write strategy %q", s)
}

// Built-in policy defaults, used when neither the route nor the cache-wide
// default sets a field.
const (
	DefaultWriteRetryCount       = 1
	DefaultWriteRetryInterval    = time.Second
	DefaultWriteRetryIntervalCap = time.Hour
)

// Policy is a set of optional policy fields. A nil field means "unset": the
// cache-wide default applies, and past that the built-in default. Explicit
// values always win, including explicit zero values (e.g. a route can turn
// retry backoff off against a default that has it on).
type Policy struct {
	// TTL for entries stored under this policy; 0 never expires.
	TTL *time.Duration

	ReadStrategy  *ReadStrategy
	WriteStrategy *WriteStrategy

	// Write-back retry tuning.
	WriteRetryCount       *int
	WriteRetryInterval    *time.Duration
	WriteRetryBackoff     *bool
	WriteRetryIntervalCap *time.Duration
}

// Opt returns a pointer to v, for filling optional Policy fields in place.
func Opt[T any](v T) *T { return &v }

// effectivePolicy is a fully resolved policy. Routes hold one; it never
// changes after registration.
type effectivePolicy struct {
	ttl           time.Duration
	read          ReadStrategy
	write         WriteStrategy
	retryCount    int
	retryInterval time.Duration
	retryBackoff  bool
	retryCap      time.Duration
}

// resolvePolicy merges override over defaults over the built-in defaults,
// field by field.
func resolvePolicy(override, defaults Policy) effectivePolicy {
	return effectivePolicy{
		ttl:           pick(override.TTL, defaults.TTL, 0),
		read:          pick(override.ReadStrategy, defaults.ReadStrategy, ReadCacheOnly),
		write:         pick(override.WriteStrategy, defaults.WriteStrategy, WriteCacheOnly),
		retryCount:    pick(override.WriteRetryCount, defaults.WriteRetryCount, DefaultWriteRetryCount),
		retryInterval: pick(override.WriteRetryInterval, defaults.WriteRetryInterval, DefaultWriteRetryInterval),
		retryBackoff:  pick(override.WriteRetryBackoff, defaults.WriteRetryBackoff, true),
		retryCap:      pick(override.WriteRetryIntervalCap, defaults.WriteRetryIntervalCap, DefaultWriteRetryIntervalCap),
	}
}

func pick[T any](override, fallback *T, builtin T) T {
	if override != nil {
		return *override
	}
	if fallback != nil {
		return *fallback
	}
	return builtin
}
