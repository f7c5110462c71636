package cache

import (
	"sync"
	"time"
)

// Item is a cached report with expiration
type Item struct {
	Data      []byte
	ExpiresAt time.Time
}

// IsExpired checks if the item has expired
func (i *Item) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// ReportCache is a thread-safe TTL cache for serialized reports, keyed by
// snapshot hash. Keys are content-addressed, so a stale entry can only ever
// be re-served for the exact same input snapshot.
type ReportCache struct {
	mu    sync.RWMutex
	items map[string]*Item
	ttl   time.Duration
}

// NewReportCache creates a cache with the specified TTL and starts its
// cleanup loop
func NewReportCache(ttl time.Duration) *ReportCache {
	c := &ReportCache{
		items: make(map[string]*Item),
		ttl:   ttl,
	}
	go c.cleanup()
	return c
}

// cleanup removes expired items periodically
func (c *ReportCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		for key, item := range c.items {
			if item.IsExpired() {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}

// Get retrieves a report by snapshot hash
func (c *ReportCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, exists := c.items[key]
	if !exists || item.IsExpired() {
		return nil, false
	}
	return item.Data, true
}

// Set stores a report under its snapshot hash
func (c *ReportCache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &Item{
		Data:      data,
		ExpiresAt: time.Now().Add(c.ttl),
	}
}

// Delete removes an item
func (c *ReportCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Size returns the number of cached items
func (c *ReportCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns cache statistics
func (c *ReportCache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	expired := 0
	for _, item := range c.items {
		if item.IsExpired() {
			expired++
		}
	}

	return map[string]interface{}{
		"total_items":   len(c.items),
		"expired_items": expired,
		"active_items":  len(c.items) - expired,
		"ttl_seconds":   c.ttl.Seconds(),
	}
}
