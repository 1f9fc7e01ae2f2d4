package advisory

import (
	"fmt"
	"sync"
	"time"

	"github.com/leiwu/speiwatch/internal/raster"
)

// Cache holds generated advisories per period and region so a page reload
// does not replay the API call. Entries expire after the TTL.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	text      string
	expiresAt time.Time
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(p raster.Period, region string) string {
	return fmt.Sprintf("%s|%s", p, region)
}

// Get returns the cached advisory for a period and region if still valid.
func (c *Cache) Get(p raster.Period, region string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[cacheKey(p, region)]
	if !ok || time.Now().After(e.expiresAt) {
		return "", false
	}
	return e.text, true
}

// Set stores an advisory.
func (c *Cache) Set(p raster.Period, region, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(p, region)] = cacheEntry{
		text:      text,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
