package semantic

import (
	"sync"
	"time"
)

// cacheEntry holds one cached annotation.
type cacheEntry struct {
	annotation   *Annotation
	expiresAt    time.Time
	lastAccessed time.Time
}

// cache is a thread-safe annotation cache with TTL expiry and LRU
// eviction at capacity.
type cache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	ttl        time.Duration
	maxEntries int
}

func newCache(ttl time.Duration, maxEntries int) *cache {
	return &cache{
		entries:    make(map[string]*cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// get returns a fresh entry, expiring stale ones on access.
func (c *cache) get(key string) (*Annotation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	e.lastAccessed = time.Now()
	return e.annotation, true
}

// set stores an annotation, evicting the least recently used entry when
// the cache is full.
func (c *cache) set(key string, ann *Annotation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[key]; !exists {
			c.evictLRU()
		}
	}

	now := time.Now()
	c.entries[key] = &cacheEntry{
		annotation:   ann,
		expiresAt:    now.Add(c.ttl),
		lastAccessed: now,
	}
}

// evictLRU removes the least recently accessed entry; callers hold the
// lock.
func (c *cache) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for key, e := range c.entries {
		if oldestKey == "" || e.lastAccessed.Before(oldest) {
			oldestKey = key
			oldest = e.lastAccessed
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// len returns the current entry count.
func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
