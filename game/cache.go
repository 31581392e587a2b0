package game

import (
	"sync"
	"time"
)

// ttlCache is a small size-bounded cache whose entries expire after ttl.
// When full, the oldest entry is evicted.
type ttlCache[V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	max   int
	items map[string]cacheEntry[V]
	now   func() time.Time
}

type cacheEntry[V any] struct {
	value V
	added time.Time
}

func newTTLCache[V any](max int, ttl time.Duration) *ttlCache[V] {
	return &ttlCache[V]{ttl: ttl, max: max, items: make(map[string]cacheEntry[V]), now: time.Now}
}

func (c *ttlCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.added) > c.ttl {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *ttlCache[V]) set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.max {
		var oldest string
		var oldestAt time.Time
		for k, e := range c.items {
			if oldest == "" || e.added.Before(oldestAt) {
				oldest, oldestAt = k, e.added
			}
		}
		delete(c.items, oldest)
	}
	c.items[key] = cacheEntry[V]{value: v, added: c.now()}
}

func (c *ttlCache[V]) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
