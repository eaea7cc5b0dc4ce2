package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/aish/internal/domain"
)

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(domain.CacheSettings{MaxEntries: 5, TTL: "1h"})
	clock := time.Now()
	c.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}

	for i := 0; i < 10; i++ {
		c.Set(domain.CacheEntry{
			Key:      fmt.Sprintf("query%d", i),
			Commands: []string{"ls"},
		})
	}

	assert.Equal(t, 5, c.Len())
	_, hit := c.Get("query0")
	assert.False(t, hit)
	_, hit = c.Get("query9")
	assert.True(t, hit)
}

func TestCacheGetRefreshesRecency(t *testing.T) {
	c := NewMemoryCache(domain.CacheSettings{MaxEntries: 2, TTL: "1h"})
	clock := time.Now()
	c.now = func() time.Time {
		clock = clock.Add(time.Millisecond)
		return clock
	}

	c.Set(domain.CacheEntry{Key: "a", Commands: []string{"ls"}})
	c.Set(domain.CacheEntry{Key: "b", Commands: []string{"pwd"}})

	// touching "a" makes "b" the eviction candidate
	_, hit := c.Get("a")
	require.True(t, hit)

	c.Set(domain.CacheEntry{Key: "c", Commands: []string{"date"}})

	_, hit = c.Get("a")
	assert.True(t, hit)
	_, hit = c.Get("b")
	assert.False(t, hit)
}

func TestCacheExpiresLazilyOnRead(t *testing.T) {
	c := NewMemoryCache(domain.CacheSettings{MaxEntries: 5, TTL: "1h"})
	base := time.Now()
	c.now = func() time.Time { return base }

	c.Set(domain.CacheEntry{Key: "k", Commands: []string{"ls"}})

	c.now = func() time.Time { return base.Add(2 * time.Hour) }
	_, hit := c.Get("k")
	assert.False(t, hit)
	assert.Equal(t, 0, c.Len(), "expired entry should be removed on read")
}

func TestCacheOverwriteDoesNotEvict(t *testing.T) {
	c := NewMemoryCache(domain.CacheSettings{MaxEntries: 2, TTL: "1h"})

	c.Set(domain.CacheEntry{Key: "a", Commands: []string{"ls"}})
	c.Set(domain.CacheEntry{Key: "b", Commands: []string{"pwd"}})
	c.Set(domain.CacheEntry{Key: "a", Commands: []string{"ls -la"}})

	entry, hit := c.Get("a")
	require.True(t, hit)
	assert.Equal(t, []string{"ls -la"}, entry.Commands)
	_, hit = c.Get("b")
	assert.True(t, hit)
}

func TestCacheUpdateSettings(t *testing.T) {
	c := NewMemoryCache(domain.CacheSettings{})
	assert.Equal(t, domain.DefaultMaxCacheEntries, c.Settings().MaxEntries)

	c.Update(domain.CacheSettings{TTL: "30m", MaxEntries: 10})
	assert.Equal(t, 10, c.Settings().MaxEntries)
	assert.Equal(t, "30m0s", c.Settings().TTL)
}

func TestFingerprintDeterministic(t *testing.T) {
	snapshot := domain.ContextSnapshot{WorkingDir: "/tmp", OS: "linux", Shell: "bash"}

	a := Fingerprint("list files", snapshot)
	b := Fingerprint("  List   Files ", snapshot)
	assert.Equal(t, a, b, "whitespace and case variations share a key")

	other := Fingerprint("list files", domain.ContextSnapshot{WorkingDir: "/home", OS: "linux", Shell: "bash"})
	assert.NotEqual(t, a, other, "different context yields a different key")
}
