// Package cache implements the bounded, time-expiring response cache keyed
// by request fingerprint.
package cache

import (
	"time"

	"github.com/doeshing/aish/internal/domain"
	"github.com/doeshing/aish/internal/ports"
)

// MemoryCache is an in-memory LRU with lazy TTL expiry. It is not safe for
// unsynchronized concurrent mutation; the router is the single writer.
type MemoryCache struct {
	entries    map[string]*domain.CacheEntry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// NewMemoryCache builds a cache from settings, falling back to the default
// capacity and a one hour TTL.
func NewMemoryCache(settings domain.CacheSettings) *MemoryCache {
	max := settings.MaxEntries
	if max <= 0 {
		max = domain.DefaultMaxCacheEntries
	}
	return &MemoryCache{
		entries:    make(map[string]*domain.CacheEntry),
		maxEntries: max,
		ttl:        parseTTL(settings.TTL),
		now:        time.Now,
	}
}

// Get returns the entry for key. An entry older than the TTL is removed and
// reported as a miss; a hit refreshes its recency.
func (c *MemoryCache) Get(key string) (domain.CacheEntry, bool) {
	entry, ok := c.entries[key]
	if !ok {
		return domain.CacheEntry{}, false
	}
	if c.ttl > 0 && c.now().Sub(entry.InsertedAt) > c.ttl {
		delete(c.entries, key)
		return domain.CacheEntry{}, false
	}
	entry.LastAccessedAt = c.now()
	return *entry, true
}

// Set inserts an entry, evicting the least-recently-accessed one first when
// the cache is full.
func (c *MemoryCache) Set(entry domain.CacheEntry) {
	if entry.Key == "" {
		return
	}
	now := c.now()
	entry.InsertedAt = now
	entry.LastAccessedAt = now
	if _, exists := c.entries[entry.Key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[entry.Key] = &entry
}

func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.LastAccessedAt.Before(oldest) {
			oldestKey = key
			oldest = entry.LastAccessedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Entries lists live entries (expired ones are dropped on the way out).
func (c *MemoryCache) Entries() []domain.CacheEntry {
	var out []domain.CacheEntry
	for key, entry := range c.entries {
		if c.ttl > 0 && c.now().Sub(entry.InsertedAt) > c.ttl {
			delete(c.entries, key)
			continue
		}
		out = append(out, *entry)
	}
	return out
}

// Len reports the current number of stored entries, including any that have
// expired but were not read since.
func (c *MemoryCache) Len() int {
	return len(c.entries)
}

// Clear removes all entries.
func (c *MemoryCache) Clear() {
	c.entries = make(map[string]*domain.CacheEntry)
}

// Settings returns the current TTL/max settings.
func (c *MemoryCache) Settings() domain.CacheSettings {
	return domain.CacheSettings{
		TTL:        c.ttl.String(),
		MaxEntries: c.maxEntries,
	}
}

// Update adjusts TTL/max entries at runtime.
func (c *MemoryCache) Update(settings domain.CacheSettings) {
	if settings.MaxEntries > 0 {
		c.maxEntries = settings.MaxEntries
	}
	if settings.TTL != "" {
		c.ttl = parseTTL(settings.TTL)
	}
}

func parseTTL(raw string) time.Duration {
	if raw == "" {
		return time.Hour
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return time.Hour
}

var _ ports.CacheStore = (*MemoryCache)(nil)
