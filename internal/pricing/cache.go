package pricing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes a single Price for a TTL. There is exactly one slot; a new
// snapshot overwrites the previous one. Concurrent misses coalesce into one
// underlying fetch instead of racing.
type Cache struct {
	TTL time.Duration

	mu      sync.RWMutex
	current *Price
	setAt   time.Time

	sf singleflight.Group
}

// Get returns the cached price if a valid entry exists.
func (c *Cache) Get() (Price, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil || time.Since(c.setAt) >= c.TTL {
		return Price{}, false
	}
	return *c.current, true
}

// Put stores p as the sole entry with the current timestamp.
func (c *Cache) Put(p Price) {
	c.mu.Lock()
	c.current = &p
	c.setAt = time.Now()
	c.mu.Unlock()
}

// GetOrFetch returns the cached price, invoking fetch only when the entry is
// missing or stale. Callers that miss concurrently share one fetch.
func (c *Cache) GetOrFetch(ctx context.Context, fetch func(context.Context) (Price, error)) (Price, error) {
	if p, ok := c.Get(); ok {
		return p, nil
	}
	v, err, _ := c.sf.Do("price", func() (any, error) {
		// another caller may have refreshed while we queued
		if p, ok := c.Get(); ok {
			return p, nil
		}
		p, err := fetch(ctx)
		if err != nil {
			return Price{}, err
		}
		c.Put(p)
		return p, nil
	})
	if err != nil {
		return Price{}, err
	}
	return v.(Price), nil
}
