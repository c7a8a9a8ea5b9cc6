// Copyright 2026 The FleetGlass Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cache provides a period-keyed, TTL-differentiated store for
// telemetry query results. Keys are deliberately day-granular so that
// near-identical ranges within the same calendar days share an entry.
package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/fleetglass/cortex/internal/temporal"
)

// DefaultMaxEntries is the entry count above which a Set sweeps expired
// entries. Eviction is lazy; there is no background timer.
const DefaultMaxEntries = 100

const keySep = "|"

// defaultTTLs reflects how fast each period's data goes stale: "now"-scoped
// data fastest, closed historical periods slowest.
var defaultTTLs = map[temporal.Period]time.Duration{
	temporal.PeriodToday:     60 * time.Second,
	temporal.PeriodYesterday: 300 * time.Second,
	temporal.PeriodThisWeek:  120 * time.Second,
	temporal.PeriodLastWeek:  600 * time.Second,
	temporal.PeriodThisMonth: 300 * time.Second,
	temporal.PeriodLastMonth: 1800 * time.Second,
	temporal.PeriodCustom:    300 * time.Second,
	temporal.PeriodLastTrip:  300 * time.Second,
	temporal.PeriodNone:      30 * time.Second,
}

// fallbackTTL covers period tags with no configured TTL.
const fallbackTTL = 300 * time.Second

// Entry is a stored payload with its lifecycle bounds.
type Entry struct {
	Payload   any
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Metrics tracks cache performance counters.
type Metrics struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

// ResultCache is an in-process store for trip/position query results.
// It is safe for concurrent use within a single process; cross-process
// consistency is explicitly out of scope given the short TTLs.
type ResultCache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttls       map[temporal.Period]time.Duration
	maxEntries int
	clock      func() time.Time
	metrics    Metrics
}

// Option adjusts a ResultCache at construction time.
type Option func(*ResultCache)

// WithClock injects a deterministic clock. Tests use this to assert TTL
// and eviction behavior without sleeping.
func WithClock(clock func() time.Time) Option {
	return func(c *ResultCache) { c.clock = clock }
}

// WithMaxEntries overrides the lazy-sweep threshold.
func WithMaxEntries(n int) Option {
	return func(c *ResultCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithTTLOverrides replaces TTLs for specific period tags.
func WithTTLOverrides(overrides map[temporal.Period]time.Duration) Option {
	return func(c *ResultCache) {
		for p, d := range overrides {
			if d > 0 {
				c.ttls[p] = d
			}
		}
	}
}

// New creates an empty ResultCache with the default TTL table.
func New(opts ...Option) *ResultCache {
	c := &ResultCache{
		entries:    make(map[string]Entry),
		ttls:       make(map[temporal.Period]time.Duration, len(defaultTTLs)),
		maxEntries: DefaultMaxEntries,
		clock:      time.Now,
	}
	for p, d := range defaultTTLs {
		c.ttls[p] = d
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// key derives the cache key from source identity, semantic period, the
// calendar days of the range bounds, and the query kind.
func key(sourceID string, period temporal.Period, start, end time.Time, kind string) string {
	return strings.Join([]string{
		sourceID,
		string(period),
		start.Format("2006-01-02"),
		end.Format("2006-01-02"),
		kind,
	}, keySep)
}

// Get returns the cached payload for the key, or (nil, false) on a miss
// or an expired entry.
func (c *ResultCache) Get(sourceID string, period temporal.Period, start, end time.Time, kind string) (any, bool) {
	k := key(sourceID, period, start, end, kind)
	now := c.clock()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[k]
	if !ok || now.After(entry.ExpiresAt) {
		c.metrics.Misses++
		return nil, false
	}
	c.metrics.Hits++
	return entry.Payload, true
}

// Set stores the payload under the derived key with the period's TTL.
// Concurrent writers to the same key resolve last-write-wins. When the
// store exceeds its size threshold, expired entries are swept.
func (c *ResultCache) Set(sourceID string, period temporal.Period, start, end time.Time, kind string, payload any) {
	k := key(sourceID, period, start, end, kind)
	now := c.clock()

	ttl, ok := c.ttls[period]
	if !ok {
		ttl = fallbackTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[k] = Entry{
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if len(c.entries) > c.maxEntries {
		c.sweepLocked(now)
	}
}

// sweepLocked evicts every expired entry. Must be called with the lock held.
func (c *ResultCache) sweepLocked(now time.Time) {
	for k, e := range c.entries {
		if now.After(e.ExpiresAt) {
			delete(c.entries, k)
			c.metrics.Evictions++
		}
	}
}

// Invalidate removes every entry for the source identity. Passing one or
// more period tags narrows the removal to those periods.
func (c *ResultCache) Invalidate(sourceID string, periods ...temporal.Period) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefixes := make([]string, 0, len(periods)+1)
	if len(periods) == 0 {
		prefixes = append(prefixes, sourceID+keySep)
	}
	for _, p := range periods {
		prefixes = append(prefixes, sourceID+keySep+string(p)+keySep)
	}

	removed := 0
	for k := range c.entries {
		for _, prefix := range prefixes {
			if strings.HasPrefix(k, prefix) {
				delete(c.entries, k)
				removed++
				break
			}
		}
	}
	return removed
}

// GetMetrics returns a snapshot of the cache counters.
func (c *ResultCache) GetMetrics() Metrics {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m := c.metrics
	m.Size = len(c.entries)
	return m
}

// Len returns the current entry count.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
