package cache

import (
	"context"
	"sync"
	"time"
)

type cachedValue struct {
	value     string
	expiresAt time.Time
}

// InMemoryCache is a string key-value cache backed by a map.
// Suitable for single-instance deployments and testing.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cachedValue
}

// NewInMemoryCache creates an in-memory cache
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[string]cachedValue)}
}

// Get returns the value stored under key, or ErrCacheMiss
func (c *InMemoryCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists || time.Now().After(e.expiresAt) {
		return "", ErrCacheMiss
	}
	return e.value, nil
}

// Set stores a value under key with the given TTL
func (c *InMemoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedValue{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

// Delete removes the given keys
func (c *InMemoryCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

// Close releases resources; a no-op for the in-memory cache
func (c *InMemoryCache) Close() error {
	return nil
}
