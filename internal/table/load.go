package table

import (
	"errors"

	"StockDesk/internal/cache"
	"StockDesk/internal/logger"
	"StockDesk/internal/query"
	"StockDesk/internal/resource"
)

// reload starts a load for the current state. The key of the newest request is the
// only one whose response will be applied.
func (t *Table[T, R]) reload() {
	if t.ctx.Err() != nil {
		return
	}
	t.mu.Lock()
	opts := t.optionsLocked()
	key := t.keyFor(opts)
	t.desired = key
	t.loading = true
	t.inflight++
	t.wg.Add(1)
	t.mu.Unlock()
	t.notify()

	go t.load(opts, key)
}

func (t *Table[T, R]) keyFor(opts query.Options[R]) string {
	key, err := cache.KeyFor(t.cfg.Resource, cache.KindList, opts)
	if err != nil {
		return t.cfg.Resource + "?" + query.Encode(opts).Encode()
	}
	return key
}

func (t *Table[T, R]) load(opts query.Options[R], key string) {
	defer t.wg.Done()

	params := query.Encode(opts)
	gen := t.cfg.Cache.Generation(t.cfg.Resource)
	page, hit := cache.GetJSON[resource.Page[T]](t.ctx, t.cfg.Cache, t.cfg.Resource, cache.KindList, params)
	var err error
	if !hit {
		page, err = t.loader(t.ctx, opts)
		if err == nil {
			cache.SetJSONAt(t.ctx, t.cfg.Cache, t.cfg.Resource, gen, cache.KindList, params, page)
		}
	}

	t.mu.Lock()
	t.inflight--
	if t.ctx.Err() != nil {
		t.mu.Unlock()
		return
	}
	if key != t.desired {
		t.mu.Unlock()
		logger.Debug("table_stale_response_dropped", map[string]any{
			"resource": t.cfg.Resource,
			"page":     opts.Page,
		})
		return
	}
	t.loading = false
	if err != nil {
		t.err = err
		t.mu.Unlock()
		logger.Warn("list_failed", map[string]any{
			"resource": t.cfg.Resource,
			"error":    err.Error(),
		})
		t.notify()
		return
	}
	t.err = nil
	t.page = page
	t.used = opts
	prefetch := page.HasNext() && len(page.Data) > 0 && t.inflight == 0
	t.mu.Unlock()
	t.notify()

	if prefetch {
		t.prefetch(opts.WithPage(page.Meta.CurrentPage + 1))
	}
}

// prefetch warms the cache with the next page. Failures never reach the view.
func (t *Table[T, R]) prefetch(opts query.Options[R]) {
	if t.cfg.Cache == nil {
		return
	}
	params := query.Encode(opts)
	gen := t.cfg.Cache.Generation(t.cfg.Resource)
	if _, ok := t.cfg.Cache.Get(t.ctx, t.cfg.Resource, cache.KindList, params); ok {
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		page, err := t.loader(t.ctx, opts)
		if err != nil {
			var rerr *resource.Error
			status := 0
			if errors.As(err, &rerr) {
				status = rerr.Status
			}
			logger.Debug("prefetch_failed", map[string]any{
				"resource": t.cfg.Resource,
				"page":     opts.Page,
				"status":   status,
				"error":    err.Error(),
			})
			return
		}
		cache.SetJSONAt(t.ctx, t.cfg.Cache, t.cfg.Resource, gen, cache.KindList, params, page)
	}()
}
