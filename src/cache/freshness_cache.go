package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// CacheEntry
// -----------------------------------------------------------------------------

type CacheEntry struct {
	Key       string
	Value     interface{}
	ExpiresAt time.Time
}

func (e CacheEntry) expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// -----------------------------------------------------------------------------
// FreshnessCache
// -----------------------------------------------------------------------------

// FreshnessCache is a key/value store with a TTL per entry.
// Expired entries are treated as absent on read and removed lazily or by Sweep.
type FreshnessCache struct {
	mu         sync.RWMutex
	entries    map[string]CacheEntry
	maxEntries int
	now        func() time.Time
}

type Option func(*FreshnessCache)

// WithClock replaces time.Now (tests drive expiry with a fake clock).
func WithClock(now func() time.Time) Option {
	return func(c *FreshnessCache) { c.now = now }
}

// WithMaxEntries bounds the number of stored entries. 0 means unbounded.
func WithMaxEntries(n int) Option {
	return func(c *FreshnessCache) { c.maxEntries = n }
}

// -----------------------------------------------------------------------------

func NewFreshnessCache(opts ...Option) *FreshnessCache {
	c := &FreshnessCache{
		entries: make(map[string]CacheEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// -----------------------------------------------------------------------------

// Get returns the value for key, or false when it was never set or has expired.
func (c *FreshnessCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if entry.expired(c.now()) {
		c.mu.Lock()
		// re-check: a concurrent Set may have refreshed the key
		if cur, ok := c.entries[key]; ok && cur.expired(c.now()) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.Value, true
}

// -----------------------------------------------------------------------------

// Set stores value under key for ttl, replacing any previous value and expiry.
func (c *FreshnessCache) Set(key string, value interface{}, ttl time.Duration) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}

	c.entries[key] = CacheEntry{
		Key:       key,
		Value:     value,
		ExpiresAt: now.Add(ttl),
	}
}

// evictLocked drops expired entries, or the entry closest to expiry when none are.
func (c *FreshnessCache) evictLocked(now time.Time) {
	removed := 0
	var victim string
	var victimExpiry time.Time

	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			removed++
			continue
		}
		if victim == "" || e.ExpiresAt.Before(victimExpiry) {
			victim = k
			victimExpiry = e.ExpiresAt
		}
	}

	if removed == 0 && victim != "" {
		delete(c.entries, victim)
	}
}

// -----------------------------------------------------------------------------

func (c *FreshnessCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// DeletePrefix removes every key starting with prefix and returns how many were removed.
func (c *FreshnessCache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len counts stored entries, including expired ones not yet swept.
func (c *FreshnessCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// -----------------------------------------------------------------------------

// Sweep removes expired entries and returns how many were removed.
func (c *FreshnessCache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// StartSweeper runs Sweep every interval until ctx is done.
func (c *FreshnessCache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}
