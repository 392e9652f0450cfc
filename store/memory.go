package store

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

const (
	defaultSweepInterval = 100 * time.Millisecond
	defaultSweepSample   = 20
)

// MemoryOptions controls the active-expiration sweep.
//
//   - SweepInterval <= 0 selects the 100ms default.
//   - SweepSample <= 0 selects the 20-key default.
type MemoryOptions struct {
	SweepInterval time.Duration
	SweepSample   int
}

// Memory is the reference in-memory Store. Expired entries are removed
// lazily on Get and proactively by a background sweep that samples a bounded
// number of random keys per tick, so a store full of never-read expired
// entries still drains without a full scan.
//
// Memory owns its sweep goroutine. Call Close to stop it.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	interval time.Duration
	sample   int
	closed   bool
}

var _ Store = (*Memory)(nil)

type entry struct {
	value     []byte
	ttl       time.Duration
	createdAt time.Time
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && !e.expiresAt.After(now)
}

// NewMemory constructs a Memory store and starts its sweep goroutine.
func NewMemory(opts MemoryOptions) *Memory {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}
	if opts.SweepSample <= 0 {
		opts.SweepSample = defaultSweepSample
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Memory{
		entries:  make(map[string]*entry),
		ctx:      ctx,
		cancel:   cancel,
		interval: opts.SweepInterval,
		sample:   opts.SweepSample,
	}

	m.wg.Add(1)
	go m.sweepLoop()

	return m
}

// Close stops the sweep goroutine. Safe to call multiple times. The store
// remains readable after Close but no longer expires entries actively.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	return nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	e := &entry{
		value:     cloneBytes(value),
		ttl:       ttl,
		createdAt: now,
	}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Get performs lazy expiration: an expired entry is deleted on access and
// reported as absent.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	now := time.Now()

	m.mu.RLock()
	e, ok := m.entries[key]
	if !ok {
		m.mu.RUnlock()
		return nil, ErrNotFound
	}
	if e.expired(now) {
		// Upgrade to a write lock to delete; re-check because the entry may
		// have been replaced or swept between locks.
		m.mu.RUnlock()
		m.mu.Lock()
		if e2, ok := m.entries[key]; ok && e2.expired(now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	v := cloneBytes(e.value)
	m.mu.RUnlock()
	return v, nil
}

func (m *Memory) Evict(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]*entry)
	m.mu.Unlock()
	return nil
}

// Size counts resident entries. Entries that expired but were not yet read or
// swept are still counted until one of the expiry paths removes them.
func (m *Memory) Size(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *Memory) sweepLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sweepOnce()
		}
	}
}

// sweepOnce applies the freshness check to at most m.sample keys. When the
// store holds no more keys than the sample cap, every key is checked;
// otherwise a random subset is drawn without duplicates.
func (m *Memory) sweepOnce() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) <= m.sample {
		for key, e := range m.entries {
			if e.expired(now) {
				delete(m.entries, key)
				sweepEvictions.Inc()
			}
		}
		return
	}

	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	for _, key := range keys[:m.sample] {
		if e := m.entries[key]; e != nil && e.expired(now) {
			delete(m.entries, key)
			sweepEvictions.Inc()
		}
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
