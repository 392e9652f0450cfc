package cachefront

import (
	"context"

	"github.com/leonardcser/cachefront/pattern"
)

// RouteContext is passed to every origin callback: the concrete key, the
// parameters extracted from the route's pattern, and, for put and update,
// the value being written (nil otherwise).
type RouteContext struct {
	Key    string
	Params map[string]string
	Value  []byte
}

// OriginFunc is the single callback shape used for reads, writes, evictions
// and updates against the system of record. Read callbacks return the fetched
// value; the other kinds may return nil.
type OriginFunc func(ctx context.Context, rc RouteContext) ([]byte, error)

// Route binds a key pattern to a policy and its origin callbacks.
//
// Callback requirements follow the resolved strategies: read-through and
// read-around need Read; write-through and write-back need Write. Evict is
// optional (eviction stays store-only without it) and Update is optional
// (Update falls back to Write).
type Route struct {
	Pattern string
	Policy  Policy

	Read   OriginFunc
	Write  OriginFunc
	Evict  OriginFunc
	Update OriginFunc
}

type compiledRoute struct {
	pattern *pattern.Pattern
	policy  effectivePolicy

	read   OriginFunc
	write  OriginFunc
	evict  OriginFunc
	update OriginFunc
}
