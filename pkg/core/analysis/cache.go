package analysis

import (
	"sync"

	"github.com/shiftlens/shiftlens/pkg/core/model"
)

// NeedCacheKey identifies one memoized need curve. Scope is a caller-chosen
// key for the input table (typically the analysis window); a new scope or a
// different slot width never collides with earlier entries.
type NeedCacheKey struct {
	Scope            string
	Statistic        model.Statistic
	SlotWidthMinutes int
}

// NeedCache is an explicit memoization table for need estimates. It is owned
// by the caller of the engine, which must invalidate it whenever the
// underlying occupancy table changes. The engine itself never caches.
type NeedCache struct {
	mu      sync.RWMutex
	entries map[NeedCacheKey][]model.NeedEstimate
}

func NewNeedCache() *NeedCache {
	return &NeedCache{entries: make(map[NeedCacheKey][]model.NeedEstimate)}
}

// Get returns the cached estimates for the key, if present.
func (c *NeedCache) Get(key NeedCacheKey) ([]model.NeedEstimate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	estimates, ok := c.entries[key]
	return estimates, ok
}

// Put stores estimates under the key, replacing any earlier entry.
func (c *NeedCache) Put(key NeedCacheKey, estimates []model.NeedEstimate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = estimates
}

// Invalidate drops every entry. Called when the occupancy table changes.
func (c *NeedCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[NeedCacheKey][]model.NeedEstimate)
}

// Len returns the number of cached curves.
func (c *NeedCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
