package confirmation

import (
	"sync"
	"time"
)

type cachedResult struct {
	result   Result
	storedAt time.Time
}

// ResultCache replays confirmation outcomes by idempotency key. It is
// process-wide and in-memory: entries are lost on restart and are not shared
// across instances.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]cachedResult
	ttl     time.Duration
	now     func() time.Time
}

// NewResultCache builds a cache whose entries expire after ttl. A zero ttl
// keeps entries forever.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		entries: make(map[string]cachedResult),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *ResultCache) Get(key string) (Result, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return Result{}, false
	}
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return Result{}, false
	}
	return entry.result, true
}

func (c *ResultCache) Put(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cachedResult{result: r, storedAt: c.now()}
}

func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
