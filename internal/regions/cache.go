package regions

import (
	"context"
	"sync"
	"time"

	"github.com/leiwu/speiwatch/internal/geo"
)

// Cache memoizes decoded boundary sets per source. It is owned by whoever
// wires the service together and passed down explicitly; nothing in this
// package caches behind the caller's back. Entries expire after maxAge so a
// replaced boundary file is eventually picked up without a restart.
type Cache struct {
	mu      sync.RWMutex
	maxAge  time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	regions  []geo.Region
	loadedAt time.Time
}

func NewCache(maxAge time.Duration) *Cache {
	return &Cache{
		maxAge:  maxAge,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached regions for a source if present and fresh.
func (c *Cache) Get(source string) ([]geo.Region, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[source]
	if !ok {
		return nil, false
	}
	if c.maxAge > 0 && time.Since(e.loadedAt) > c.maxAge {
		return nil, false
	}
	return e.regions, true
}

// Put stores a loaded boundary set.
func (c *Cache) Put(source string, regions []geo.Region) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[source] = cacheEntry{regions: regions, loadedAt: time.Now()}
}

// Invalidate drops one source's entry.
func (c *Cache) Invalidate(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, source)
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Load returns the regions for the client's source, consulting the cache
// first and populating it on a miss.
func (c *Cache) Load(ctx context.Context, client *Client) ([]geo.Region, error) {
	if regions, ok := c.Get(client.Source()); ok {
		return regions, nil
	}
	regions, err := client.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.Put(client.Source(), regions)
	return regions, nil
}
