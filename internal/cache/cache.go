// Package cache provides the process-wide TTL cache and per-endpoint-class
// rate gate that shield the upstream USGS/NWS services. Both take an explicit
// clockwork.Clock so tests control time.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// TTLCache is a thread-safe map with per-entry expiry. Entries are immutable
// once written and safely overwritten; concurrent fetchers for the same key
// may race, and last-write-wins is acceptable because the cached payloads are
// idempotent. Expired entries are dropped lazily on lookup — there is no
// janitor goroutine.
type TTLCache[V any] struct {
	clock   clockwork.Clock
	mu      sync.Mutex
	entries map[string]ttlEntry[V]
}

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewTTLCache creates a cache using the given clock. Pass nil for real time.
func NewTTLCache[V any](clock clockwork.Clock) *TTLCache[V] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TTLCache[V]{
		clock:   clock,
		entries: make(map[string]ttlEntry[V]),
	}
}

// Get returns the cached value if its TTL has not elapsed.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the given TTL, replacing any existing entry.
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = ttlEntry[V]{
		value:     value,
		expiresAt: c.clock.Now().Add(ttl),
	}
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RateGate enforces a minimum interval between calls per logical endpoint
// class (weather, gauge-query, prediction), independent of caching.
type RateGate struct {
	clock    clockwork.Clock
	interval map[string]time.Duration
	mu       sync.Mutex
	last     map[string]time.Time
}

// NewRateGate creates a gate with per-class minimum intervals.
// Pass nil for real time.
func NewRateGate(clock clockwork.Clock, intervals map[string]time.Duration) *RateGate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RateGate{
		clock:    clock,
		interval: intervals,
		last:     make(map[string]time.Time),
	}
}

// Allow reports whether a call for the class may proceed and, if so, records
// it. Classes without a configured interval are always allowed.
func (g *RateGate) Allow(class string) bool {
	interval, ok := g.interval[class]
	if !ok || interval <= 0 {
		return true
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	if last, seen := g.last[class]; seen && now.Sub(last) < interval {
		return false
	}
	g.last[class] = now
	return true
}
