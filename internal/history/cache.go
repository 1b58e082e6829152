package history

import (
	"sync"
	"time"
)

// statsCacheTTL bounds how long aggregates are served without a query
const statsCacheTTL = 30 * time.Second

type cacheEntry struct {
	stats       []Stats
	lastRefresh time.Time
}

// statsCache holds Stats results per workspace
type statsCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
}

func newStatsCache(ttl time.Duration) *statsCache {
	return &statsCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
	}
}

func (c *statsCache) get(workspace string) ([]Stats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[workspace]
	if !exists || time.Since(entry.lastRefresh) > c.ttl {
		return nil, false
	}
	return entry.stats, true
}

func (c *statsCache) set(workspace string, stats []Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[workspace] = &cacheEntry{stats: stats, lastRefresh: time.Now()}
}

func (c *statsCache) invalidate(workspace string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, workspace)
}
