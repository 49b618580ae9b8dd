package listcache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache is an in-process Cache for development and tests.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || (!e.expires.IsZero() && time.Now().After(e.expires)) {
		delete(c.entries, key)
		return nil, ErrCacheMiss
	}
	return e.value, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	c.entries[key] = memoryEntry{value: value, expires: expires}
	return nil
}

func (c *MemoryCache) Invalidate(ctx context.Context, emails ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, email := range emails {
		prefix := listPrefix(email)
		for k := range c.entries {
			if strings.HasPrefix(k, prefix) {
				delete(c.entries, k)
			}
		}
	}
	return nil
}
