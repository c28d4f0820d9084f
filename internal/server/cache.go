package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultCacheTTL bounds how stale a cached read-only response may be.
	DefaultCacheTTL = 30 * time.Second

	// DefaultCacheEntries caps the cache size before eviction kicks in.
	DefaultCacheEntries = 512
)

type cacheEntry struct {
	payload   string
	expiresAt time.Time
}

// ResponseCache is a short-TTL cache for read-only tool responses. Entries
// are keyed by session, tool name, and argument fingerprint, so one
// session's cached data is never served to another.
type ResponseCache struct {
	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewResponseCache creates a cache with the given TTL and entry cap.
func NewResponseCache(ttl time.Duration, maxEntries int) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	return &ResponseCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]cacheEntry),
		now:        time.Now,
	}
}

// CacheKey builds a stable key from the session, tool name, and arguments.
// Argument order does not affect the key.
func CacheKey(sessionID, tool string, args map[string]interface{}) string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		if v, err := json.Marshal(args[k]); err == nil {
			b.Write(v)
		}
		b.WriteByte(';')
	}

	sum := sha256.Sum256([]byte(sessionID + "|" + tool + "|" + b.String()))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached payload for the key if it has not expired.
func (c *ResponseCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return "", false
	}
	return entry.payload, true
}

// Set stores a payload under the key. When the cache is full, expired
// entries are purged first; if it is still full the new entry replaces an
// arbitrary one.
func (c *ResponseCache) Set(key, payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.entries) >= c.maxEntries {
		for k, entry := range c.entries {
			if now.After(entry.expiresAt) {
				delete(c.entries, k)
			}
		}
		for k := range c.entries {
			if len(c.entries) < c.maxEntries {
				break
			}
			delete(c.entries, k)
		}
	}

	c.entries[key] = cacheEntry{
		payload:   payload,
		expiresAt: now.Add(c.ttl),
	}
}

// Flush drops every cached entry. Called after a side-effecting tool so
// subsequent reads observe the mutation.
func (c *ResponseCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of cached entries, expired or not.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
