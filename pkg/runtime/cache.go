package runtime

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// Cache is the exact-match, TTL-keyed think/infer/reason cache of spec
// §4.7 step 3: "Cache probe... On hit, return the stored value. Cache
// is TTL-keyed (default 1h); expired entries are deleted on probe."
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value    any
	expireAt time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: map[string]cacheEntry{}}
}

// Get probes the cache, deleting the entry first if it has expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expireAt) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expireAt: time.Now().Add(c.ttl)}
}

func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]cacheEntry{}
}

// CacheKey computes the SHA-256 of the canonical JSON of
// {prompt, context, schema} (spec §4.7 step 3). encoding/json already
// sorts map[string]any keys on marshal, so this is canonical across
// Go's nondeterministic map iteration order without extra bookkeeping.
func CacheKey(prompt string, context map[string]any, schemaJSON any) string {
	raw, _ := json.Marshal(map[string]any{
		"prompt":  prompt,
		"context": context,
		"schema":  schemaJSON,
	})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
