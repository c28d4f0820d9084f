package server

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey_ArgumentOrderIndependent(t *testing.T) {
	a := CacheKey("s1", "list_emails", map[string]interface{}{
		"max_results": float64(10),
		"query":       "from:ana",
	})
	b := CacheKey("s1", "list_emails", map[string]interface{}{
		"query":       "from:ana",
		"max_results": float64(10),
	})
	assert.Equal(t, a, b)
}

func TestCacheKey_Distinguishes(t *testing.T) {
	base := CacheKey("s1", "list_emails", map[string]interface{}{"max_results": float64(10)})

	otherSession := CacheKey("s2", "list_emails", map[string]interface{}{"max_results": float64(10)})
	otherTool := CacheKey("s1", "search_emails", map[string]interface{}{"max_results": float64(10)})
	otherArgs := CacheKey("s1", "list_emails", map[string]interface{}{"max_results": float64(20)})

	assert.NotEqual(t, base, otherSession, "sessions must not share cache entries")
	assert.NotEqual(t, base, otherTool)
	assert.NotEqual(t, base, otherArgs)
}

func TestResponseCache_GetSet(t *testing.T) {
	c := NewResponseCache(30*time.Second, 16)
	key := CacheKey("s1", "get_schedule", map[string]interface{}{"date": "2026-01-05"})

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Set(key, "Schedule from 2026-01-05 for 1 day(s):")
	payload, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "Schedule from 2026-01-05 for 1 day(s):", payload)
}

func TestResponseCache_TTLExpiry(t *testing.T) {
	c := NewResponseCache(30*time.Second, 16)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("k", "payload")
	_, ok := c.Get("k")
	require.True(t, ok)

	now = now.Add(29 * time.Second)
	_, ok = c.Get("k")
	assert.True(t, ok, "entry must live for the full TTL")

	now = now.Add(2 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry must expire after the TTL")
	assert.Equal(t, 0, c.Len(), "expired entry is dropped on read")
}

func TestResponseCache_Flush(t *testing.T) {
	c := NewResponseCache(time.Minute, 16)
	c.Set("a", "1")
	c.Set("b", "2")
	require.Equal(t, 2, c.Len())

	c.Flush()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestResponseCache_EvictionCap(t *testing.T) {
	c := NewResponseCache(time.Minute, 4)
	for i := 0; i < 10; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
	}
	assert.LessOrEqual(t, c.Len(), 4)

	// The most recent write always lands.
	payload, ok := c.Get("k9")
	require.True(t, ok)
	assert.Equal(t, "v", payload)
}

func TestResponseCache_EvictionPrefersExpired(t *testing.T) {
	c := NewResponseCache(30*time.Second, 2)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("old", "x")
	now = now.Add(time.Minute)
	c.Set("fresh", "y")
	c.Set("newer", "z")

	_, ok := c.Get("fresh")
	assert.True(t, ok, "expired entries are purged before live ones")
	_, ok = c.Get("newer")
	assert.True(t, ok)
}

func TestResponseCache_Defaults(t *testing.T) {
	c := NewResponseCache(0, 0)
	assert.Equal(t, DefaultCacheTTL, c.ttl)
	assert.Equal(t, DefaultCacheEntries, c.maxEntries)
}
