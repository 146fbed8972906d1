package secrets

import (
	"sync"
	"time"
)

// CacheConfig configures the manager's secret cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	MaxSize int
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

// Cache holds resolved secrets for TTL. When full, the entry closest to
// expiry is evicted.
type Cache struct {
	config  CacheConfig
	entries map[string]cacheEntry
	mu      sync.RWMutex
	now     func() time.Time
}

// NewCache creates a cache. A disabled cache never stores anything.
func NewCache(config CacheConfig) *Cache {
	return &Cache{
		config:  config,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns an unexpired value.
func (c *Cache) Get(key string) (string, bool) {
	if !c.config.Enabled {
		return "", false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		return "", false
	}
	return entry.value, true
}

// Set stores value for key.
func (c *Cache) Set(key, value string) {
	if !c.config.Enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && c.config.MaxSize > 0 && len(c.entries) >= c.config.MaxSize {
		var oldest string
		var oldestAt time.Time
		for k, e := range c.entries {
			if oldest == "" || e.expiresAt.Before(oldestAt) {
				oldest, oldestAt = k, e.expiresAt
			}
		}
		delete(c.entries, oldest)
	}

	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(c.config.TTL)}
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Size returns the number of stored entries, expired ones included.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
