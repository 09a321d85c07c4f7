// Package cache is the shared query cache read by primary table loads and written by
// speculative prefetches. Entries are keyed by the full request tuple.
//
// Staleness policy: every entry lives for the configured TTL; Invalidate(resource)
// bumps a per-resource generation so all earlier entries of that resource stop
// being reachable at once. Generations are per process.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"StockDesk/internal/logger"
	"StockDesk/internal/query"
)

// Store is the byte-level backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Cache struct {
	store Store
	ttl   time.Duration

	mu   sync.Mutex
	gens map[string]uint64
}

func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{store: store, ttl: ttl, gens: make(map[string]uint64)}
}

// Generation returns the current generation of resource. A load captures it before
// fetching and writes with SetAt, so data fetched before an Invalidate never lands in
// the newer generation.
func (c *Cache) Generation(resource string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[resource]
}

func (c *Cache) storeKey(resource string, kind Kind, params query.Params) (string, error) {
	return c.storeKeyAt(resource, c.Generation(resource), kind, params)
}

func (c *Cache) storeKeyAt(resource string, gen uint64, kind Kind, params query.Params) (string, error) {
	key, err := Key(resource, kind, params)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("query:%s:%s:%d:%s", resource, kind, gen, strings.TrimPrefix(key, "query:")), nil
}

// Get treats backend failures as misses; the cache never fails a load.
func (c *Cache) Get(ctx context.Context, resource string, kind Kind, params query.Params) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	key, err := c.storeKey(resource, kind, params)
	if err != nil {
		return nil, false
	}
	val, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warn("query_cache_get_failed", map[string]any{"resource": resource, "error": err.Error()})
		return nil, false
	}
	return val, ok
}

func (c *Cache) Set(ctx context.Context, resource string, kind Kind, params query.Params, value []byte) {
	c.SetAt(ctx, resource, c.Generation(resource), kind, params, value)
}

// SetAt writes value under generation gen. The write is dropped when resource has been
// invalidated since gen was read.
func (c *Cache) SetAt(ctx context.Context, resource string, gen uint64, kind Kind, params query.Params, value []byte) {
	if c == nil {
		return
	}
	if cur := c.Generation(resource); cur != gen {
		logger.Debug("query_cache_stale_write_dropped", map[string]any{
			"resource":   resource,
			"generation": gen,
			"current":    cur,
		})
		return
	}
	key, err := c.storeKeyAt(resource, gen, kind, params)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, value, c.ttl); err != nil {
		logger.Warn("query_cache_set_failed", map[string]any{"resource": resource, "error": err.Error()})
	}
}

// Invalidate makes every cached entry of resource unreachable, e.g. after a write.
func (c *Cache) Invalidate(resource string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.gens[resource]++
	c.mu.Unlock()
}

func GetJSON[T any](ctx context.Context, c *Cache, resource string, kind Kind, params query.Params) (T, bool) {
	var out T
	raw, ok := c.Get(ctx, resource, kind, params)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		logger.Warn("query_cache_decode_failed", map[string]any{"resource": resource, "error": err.Error()})
		return out, false
	}
	return out, true
}

func SetJSON[T any](ctx context.Context, c *Cache, resource string, kind Kind, params query.Params, v T) {
	SetJSONAt(ctx, c, resource, c.Generation(resource), kind, params, v)
}

func SetJSONAt[T any](ctx context.Context, c *Cache, resource string, gen uint64, kind Kind, params query.Params, v T) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.SetAt(ctx, resource, gen, kind, params, raw)
}
