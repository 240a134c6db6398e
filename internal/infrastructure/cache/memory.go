package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cartscout/backend/internal/domain"
)

// cacheItem is a single cached aggregation with its expiration
type cacheItem struct {
	payload    []byte
	expiration time.Time
}

// MemoryCache is a thread-safe in-memory quote cache with TTL support.
// Entries are stored as JSON so a result read back from memory is
// byte-identical to one read back from Redis; the two backends are
// interchangeable without changing observable output.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory quote cache
func NewMemoryCache() *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]cacheItem),
	}

	// Start cleanup goroutine to remove expired entries every 10 minutes
	go cache.cleanupExpired()

	return cache
}

// Get retrieves a cached aggregation result
func (c *MemoryCache) Get(ctx context.Context, key string) (*domain.AggregatedResult, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	// Check if expired
	if time.Now().After(item.expiration) {
		return nil, domain.ErrCacheMiss
	}

	var result domain.AggregatedResult
	if err := json.Unmarshal(item.payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Set stores an aggregation result with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value *domain.AggregatedResult, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		payload:    payload,
		expiration: time.Now().Add(ttl),
	}

	return nil
}

// Delete removes a cached result
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, item := range c.data {
			if now.After(item.expiration) {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}
