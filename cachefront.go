// Package cachefront is a caching facade between application code and a
// key/value backing store. Keys are routed by registered patterns
// ("user:{id}") to per-pattern policies deciding how reads and writes are
// served: cache-only, read-through, read-around, write-through or write-back.
// Origin callbacks, the functions that talk to the system of record, are
// supplied by the caller per route.
package cachefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leonardcser/cachefront/pattern"
	"github.com/leonardcser/cachefront/store"
)

// Source tags where a fetched value came from.
type Source int

const (
	SourceNone Source = iota
	// SourceCache: served from the backing store.
	SourceCache
	// SourceOrigin: fetched from the origin callback.
	SourceOrigin
	// SourceFallback: the origin failed and a cached value was served
	// instead (read-around degraded mode).
	SourceFallback
)

// Cache dispatches operations to the store and to origin callbacks according
// to the first registered route whose pattern matches the key.
//
// Cache owns the goroutines it spawns for write-back propagation; Close waits
// for them. It does not own the store's lifecycle.
type Cache struct {
	store    store.Store
	defaults Policy
	baseline effectivePolicy
	log      *slog.Logger
	sleep    func(time.Duration)

	mu     sync.RWMutex
	routes []*compiledRoute

	wg sync.WaitGroup
}

// Option configures a Cache.
type Option func(*Cache)

// WithDefaultPolicy sets the cache-wide default policy that route policies
// inherit unset fields from.
func WithDefaultPolicy(p Policy) Option {
	return func(c *Cache) { c.defaults = p }
}

// WithLogger sets the logger used for write-back and fallback reporting.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// New constructs a Cache over st.
func New(st store.Store, opts ...Option) *Cache {
	c := &Cache{
		store: st,
		log:   slog.Default(),
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseline = resolvePolicy(Policy{}, c.defaults)
	return c
}

// Register validates the route's pattern, resolves its policy against the
// cache-wide defaults, and appends it to the registry. Routes are matched in
// registration order; the first match wins. There is no duplicate detection
// and no way to unregister.
func (c *Cache) Register(r Route) error {
	p, err := pattern.Compile(r.Pattern)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	pol := resolvePolicy(r.Policy, c.defaults)

	if (pol.read == ReadThrough || pol.read == ReadAround) && r.Read == nil {
		return fmt.Errorf("cachefront: route %q: %s requires a read callback", r.Pattern, pol.read)
	}
	if (pol.write == WriteThrough || pol.write == WriteBack) && r.Write == nil {
		return fmt.Errorf("cachefront: route %q: %s requires a write callback", r.Pattern, pol.write)
	}

	c.mu.Lock()
	c.routes = append(c.routes, &compiledRoute{
		pattern: p,
		policy:  pol,
		read:    r.Read,
		write:   r.Write,
		evict:   r.Evict,
		update:  r.Update,
	})
	c.mu.Unlock()
	return nil
}

// findRoute scans the registry in registration order. Registries are small
// and static, so the linear scan is fine.
func (c *Cache) findRoute(key string) (*compiledRoute, RouteContext) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, rt := range c.routes {
		if params, ok := rt.pattern.Match(key); ok {
			return rt, RouteContext{Key: key, Params: params}
		}
	}
	return nil, RouteContext{Key: key}
}

func (c *Cache) policyFor(rt *compiledRoute) effectivePolicy {
	if rt == nil {
		return c.baseline
	}
	return rt.policy
}

// Put stores value under key according to the matched route's write strategy.
// An unmatched key is stored cache-only under the default policy.
func (c *Cache) Put(ctx context.Context, key string, value []byte) error {
	rt, rc := c.findRoute(key)
	rc.Value = value
	pol := c.policyFor(rt)

	switch {
	case rt != nil && pol.write == WriteThrough:
		if _, err := rt.write(ctx, rc); err != nil {
			originCalls.WithLabelValues("write", "error").Inc()
			return &OriginError{Op: "put", Key: key, Err: err}
		}
		originCalls.WithLabelValues("write", "ok").Inc()
		return c.store.Put(ctx, key, value, pol.ttl)

	case rt != nil && pol.write == WriteBack:
		if err := c.store.Put(ctx, key, value, pol.ttl); err != nil {
			return err
		}
		c.enqueueWriteBack("put", rc, pol, rt.write)
		return nil

	default:
		return c.store.Put(ctx, key, value, pol.ttl)
	}
}

// Get returns the value for key per the matched route's read strategy. See
// Fetch for the variant that also reports where the value came from.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	v, _, err := c.Fetch(ctx, key)
	return v, err
}

// Fetch is Get plus a Source tag. The tag distinguishes a read-around origin
// success from the degraded path where the origin failed and a cached value
// was served instead.
func (c *Cache) Fetch(ctx context.Context, key string) ([]byte, Source, error) {
	rt, rc := c.findRoute(key)
	pol := c.policyFor(rt)

	switch {
	case rt != nil && pol.read == ReadThrough:
		v, err := c.store.Get(ctx, key)
		if err == nil {
			cacheHits.Inc()
			return v, SourceCache, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, SourceNone, err
		}
		cacheMisses.Inc()

		v, err = rt.read(ctx, rc)
		if err != nil {
			originCalls.WithLabelValues("read", "error").Inc()
			return nil, SourceNone, &OriginError{Op: "get", Key: key, Err: err}
		}
		originCalls.WithLabelValues("read", "ok").Inc()
		c.populate(ctx, key, v, pol.ttl)
		return v, SourceOrigin, nil

	case rt != nil && pol.read == ReadAround:
		v, err := rt.read(ctx, rc)
		if err == nil {
			originCalls.WithLabelValues("read", "ok").Inc()
			c.populate(ctx, key, v, pol.ttl)
			return v, SourceOrigin, nil
		}
		originCalls.WithLabelValues("read", "error").Inc()

		cached, cerr := c.store.Get(ctx, key)
		if cerr == nil {
			cacheHits.Inc()
			c.log.Warn("origin read failed, serving cached value",
				"key", key, "err", err)
			return cached, SourceFallback, nil
		}
		cacheMisses.Inc()
		fe := &FallbackExhaustedError{Key: key, Origin: err}
		if !errors.Is(cerr, store.ErrNotFound) {
			fe.Store = cerr
		}
		return nil, SourceNone, fe

	default:
		v, err := c.store.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			cacheMisses.Inc()
			return nil, SourceNone, ErrKeyNotFound
		}
		if err != nil {
			return nil, SourceNone, err
		}
		cacheHits.Inc()
		return v, SourceCache, nil
	}
}

// populate writes an origin-fetched value into the store. The value is
// already in hand, so a store failure only degrades future reads; it is
// logged, not surfaced.
func (c *Cache) populate(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.store.Put(ctx, key, value, ttl); err != nil {
		c.log.Warn("failed to populate store after origin read", "key", key, "err", err)
	}
}

// Update behaves like Put but uses the route's update callback, falling back
// to its write callback when none is configured. Unlike Put, an unmatched key
// is an error (ErrNoRoute).
func (c *Cache) Update(ctx context.Context, key string, value []byte) error {
	rt, rc := c.findRoute(key)
	if rt == nil {
		return fmt.Errorf("%w: %q", ErrNoRoute, key)
	}
	rc.Value = value
	pol := rt.policy

	cb := rt.update
	if cb == nil {
		cb = rt.write
	}

	switch pol.write {
	case WriteThrough:
		if _, err := cb(ctx, rc); err != nil {
			originCalls.WithLabelValues("write", "error").Inc()
			return &OriginError{Op: "update", Key: key, Err: err}
		}
		originCalls.WithLabelValues("write", "ok").Inc()
		return c.store.Put(ctx, key, value, pol.ttl)

	case WriteBack:
		if err := c.store.Put(ctx, key, value, pol.ttl); err != nil {
			return err
		}
		c.enqueueWriteBack("update", rc, pol, cb)
		return nil

	default:
		return c.store.Put(ctx, key, value, pol.ttl)
	}
}

// Evict removes key from the store per the matched route's write strategy.
// Routes without an evict callback fall back to store-only eviction.
func (c *Cache) Evict(ctx context.Context, key string) error {
	rt, rc := c.findRoute(key)
	pol := c.policyFor(rt)

	switch {
	case rt != nil && pol.write == WriteThrough && rt.evict != nil:
		if _, err := rt.evict(ctx, rc); err != nil {
			originCalls.WithLabelValues("evict", "error").Inc()
			return &OriginError{Op: "evict", Key: key, Err: err}
		}
		originCalls.WithLabelValues("evict", "ok").Inc()
		return c.store.Evict(ctx, key)

	case rt != nil && pol.write == WriteBack && rt.evict != nil:
		if err := c.store.Evict(ctx, key); err != nil {
			return err
		}
		c.enqueueWriteBack("evict", rc, pol, rt.evict)
		return nil

	default:
		return c.store.Evict(ctx, key)
	}
}

// Clear empties the store. No callbacks are invoked.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// ContainsKey reports whether key is cached and fresh.
func (c *Cache) ContainsKey(ctx context.Context, key string) (bool, error) {
	_, err := c.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Size returns the store's live entry count.
func (c *Cache) Size(ctx context.Context) (int, error) {
	return c.store.Size(ctx)
}

// Close waits for in-flight write-back propagation to settle. It does not
// close the store.
func (c *Cache) Close() error {
	c.wg.Wait()
	return nil
}
