package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL matches the ten minute memoization of analysis loads.
const DefaultTTL = 600 * time.Second

type MissFn[K comparable, V any] func(ctx context.Context, key K) (V, error)

type cacheObject[V any] struct {
	lastUpdated time.Time
	value       V
}

// Memo is an in-process TTL cache that computes missing keys with a miss function.
// Failed computations are not stored.
type Memo[K comparable, V any] struct {
	timeout      time.Duration
	mutex        sync.RWMutex
	items        map[K]cacheObject[V]
	missFunction MissFn[K, V]
	now          func() time.Time
	// OnHit and OnMiss observe lookups, used for metrics.
	OnHit  func()
	OnMiss func()
}

func NewMemo[K comparable, V any](timeout time.Duration, missFunction MissFn[K, V]) *Memo[K, V] {
	if timeout <= 0 {
		timeout = DefaultTTL
	}
	return &Memo[K, V]{
		timeout:      timeout,
		items:        make(map[K]cacheObject[V]),
		missFunction: missFunction,
		now:          time.Now,
	}
}

func (c *Memo[K, V]) Retrieve(ctx context.Context, key K) (V, error) {
	c.mutex.RLock()
	item, ok := c.items[key]
	c.mutex.RUnlock()
	if ok && c.now().Sub(item.lastUpdated) < c.timeout {
		if c.OnHit != nil {
			c.OnHit()
		}
		return item.value, nil
	}

	if c.OnMiss != nil {
		c.OnMiss()
	}
	value, err := c.missFunction(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.store(key, value)
	return value, nil
}

func (c *Memo[K, V]) store(key K, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	now := c.now()
	c.items[key] = cacheObject[V]{lastUpdated: now, value: value}
	for k, v := range c.items {
		if now.Sub(v.lastUpdated) >= c.timeout {
			delete(c.items, k)
		}
	}
}

// Purge drops every entry.
func (c *Memo[K, V]) Purge() {
	c.mutex.Lock()
	c.items = make(map[K]cacheObject[V])
	c.mutex.Unlock()
}

func (c *Memo[K, V]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}
