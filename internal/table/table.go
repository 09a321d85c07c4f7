// Package table holds the state behind a paginated, filterable grid and turns every
// change into exactly one list request. Column filters are debounced, everything else
// reloads immediately. Responses that no longer match the latest request are dropped,
// and after a successful page the next one is prefetched into the shared cache.
package table

import (
	"context"
	"slices"
	"sync"
	"time"

	"StockDesk/internal/cache"
	"StockDesk/internal/debounce"
	"StockDesk/internal/query"
	"StockDesk/internal/resource"
)

const (
	DefaultPageSize  = 10
	DefaultSearchKey = "q"
)

type ColumnFilter struct {
	ID    string
	Value any
}

type SortingRule struct {
	ID   string
	Desc bool
}

// Pagination is 0-based; the wire page is Index+1.
type Pagination struct {
	Index int
	Size  int
}

// Loader fetches one page for the given options.
type Loader[T any, R ~string] func(ctx context.Context, opts query.Options[R]) (resource.Page[T], error)

// ResourceLoader binds the list operation of the façade to a client and path.
func ResourceLoader[T any, R ~string](c *resource.Client, path string) Loader[T, R] {
	return func(ctx context.Context, opts query.Options[R]) (resource.Page[T], error) {
		return resource.List[T](ctx, c, path, opts)
	}
}

type Config[R ~string] struct {
	// Resource names the cache namespace, usually the endpoint path.
	Resource string
	Include  []R
	// Immutable filters are always sent and override user filters on the same key.
	Immutable       query.Fields
	DefaultPageSize int
	Debounce        time.Duration
	SearchKey       string
	Cache           *cache.Cache
	// OnChange is called outside the lock after every state change, possibly from a
	// load goroutine.
	OnChange func()
}

// View is a consistent snapshot of what the grid shows.
type View[T any, R ~string] struct {
	Rows          []T
	Meta          *resource.Meta
	Links         *resource.Links
	Options       query.Options[R]
	Pagination    Pagination
	ColumnFilters []ColumnFilter
	GlobalFilter  string
	Sorting       []SortingRule
	Loading       bool
	Err           string
	Selection     []string
}

type Table[T any, R ~string] struct {
	loader Loader[T, R]
	cfg    Config[R]
	deb    *debounce.Debouncer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.Mutex
	columnFilters  []ColumnFilter
	pendingFilters []ColumnFilter
	globalFilter   string
	sorting        []SortingRule
	pagination     Pagination
	selectable     bool
	selected       map[string]bool

	page     resource.Page[T]
	used     query.Options[R]
	loading  bool
	err      error
	desired  string
	inflight int
}

// New builds the table and starts the first load.
func New[T any, R ~string](ctx context.Context, loader Loader[T, R], cfg Config[R]) *Table[T, R] {
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = DefaultPageSize
	}
	if cfg.SearchKey == "" {
		cfg.SearchKey = DefaultSearchKey
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &Table[T, R]{
		loader:     loader,
		cfg:        cfg,
		deb:        debounce.New(cfg.Debounce),
		ctx:        ctx,
		cancel:     cancel,
		pagination: Pagination{Size: cfg.DefaultPageSize},
		selected:   make(map[string]bool),
	}
	t.reload()
	return t
}

// Close cancels in-flight loads and any pending filter commit.
func (t *Table[T, R]) Close() {
	t.deb.Stop()
	t.cancel()
}

func (t *Table[T, R]) SetPage(index int) {
	if index < 0 {
		index = 0
	}
	t.mu.Lock()
	t.pagination.Index = index
	t.mu.Unlock()
	t.reload()
}

// SetPageSize changes the page size and goes back to the first page.
func (t *Table[T, R]) SetPageSize(size int) {
	if size <= 0 {
		size = t.cfg.DefaultPageSize
	}
	t.mu.Lock()
	t.pagination = Pagination{Index: 0, Size: size}
	t.mu.Unlock()
	t.reload()
}

// SetGlobalFilter sets the free-text search. It reloads immediately.
func (t *Table[T, R]) SetGlobalFilter(text string) {
	t.mu.Lock()
	t.globalFilter = text
	t.mu.Unlock()
	t.reload()
}

// SetColumnFilter sets or, for an empty value, removes one column filter. The change
// is committed after the debounce period.
func (t *Table[T, R]) SetColumnFilter(id string, value any) {
	t.mu.Lock()
	base := t.pendingFilters
	if base == nil {
		base = t.columnFilters
	}
	next := make([]ColumnFilter, 0, len(base)+1)
	found := false
	for _, cf := range base {
		if cf.ID == id {
			found = true
			if !isEmptyFilter(value) {
				next = append(next, ColumnFilter{ID: id, Value: value})
			}
			continue
		}
		next = append(next, cf)
	}
	if !found && !isEmptyFilter(value) {
		next = append(next, ColumnFilter{ID: id, Value: value})
	}
	t.pendingFilters = next
	t.mu.Unlock()
	t.deb.Trigger(t.commitFilters)
}

// SetColumnFilters replaces all column filters, debounced like SetColumnFilter.
func (t *Table[T, R]) SetColumnFilters(filters []ColumnFilter) {
	next := make([]ColumnFilter, 0, len(filters))
	for _, cf := range filters {
		if !isEmptyFilter(cf.Value) {
			next = append(next, cf)
		}
	}
	t.mu.Lock()
	t.pendingFilters = next
	t.mu.Unlock()
	t.deb.Trigger(t.commitFilters)
}

// FlushFilters commits pending column filters without waiting for the quiet period.
func (t *Table[T, R]) FlushFilters() {
	t.deb.Flush()
}

func (t *Table[T, R]) commitFilters() {
	t.mu.Lock()
	if t.pendingFilters == nil {
		t.mu.Unlock()
		return
	}
	t.columnFilters = t.pendingFilters
	t.pendingFilters = nil
	t.pagination.Index = 0
	t.mu.Unlock()
	t.reload()
}

// SetSorting keeps every rule for display; only the first one is sent.
func (t *Table[T, R]) SetSorting(rules []SortingRule) {
	t.mu.Lock()
	t.sorting = slices.Clone(rules)
	t.mu.Unlock()
	t.reload()
}

// ClearFilters resets filters, sorting and pagination to their initial values.
func (t *Table[T, R]) ClearFilters() {
	t.deb.Stop()
	t.mu.Lock()
	t.columnFilters = nil
	t.pendingFilters = nil
	t.globalFilter = ""
	t.sorting = nil
	t.pagination = Pagination{Index: 0, Size: t.cfg.DefaultPageSize}
	t.mu.Unlock()
	t.reload()
}

// EnableRowSelection toggles selection support; turning it off clears the selection.
func (t *Table[T, R]) EnableRowSelection(on bool) {
	t.mu.Lock()
	t.selectable = on
	if !on {
		clear(t.selected)
	}
	t.mu.Unlock()
	t.notify()
}

// ToggleRow flips the selection of one row and reports whether it is now selected.
func (t *Table[T, R]) ToggleRow(id string) bool {
	t.mu.Lock()
	if !t.selectable {
		t.mu.Unlock()
		return false
	}
	if t.selected[id] {
		delete(t.selected, id)
	} else {
		t.selected[id] = true
	}
	on := t.selected[id]
	t.mu.Unlock()
	t.notify()
	return on
}

func (t *Table[T, R]) Selection() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selectionLocked()
}

func (t *Table[T, R]) selectionLocked() []string {
	var keys []string
	for k := range t.selected {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Options derives the request for the current committed state.
func (t *Table[T, R]) Options() query.Options[R] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.optionsLocked()
}

func (t *Table[T, R]) optionsLocked() query.Options[R] {
	var fields query.Fields
	for _, cf := range t.columnFilters {
		fields = fields.Set(cf.ID, cf.Value)
	}
	if t.globalFilter != "" {
		fields = fields.Set(t.cfg.SearchKey, t.globalFilter)
	}
	fields = fields.Merge(t.cfg.Immutable)

	var sort query.Sort
	if len(t.sorting) > 0 {
		rule := t.sorting[0]
		if rule.Desc {
			sort = query.Desc(rule.ID)
		} else {
			sort = query.Asc(rule.ID)
		}
	}

	return query.Options[R]{
		Filter:  fields,
		Include: slices.Clone(t.cfg.Include),
		Page:    t.pagination.Index + 1,
		PerPage: t.pagination.Size,
		Sort:    sort,
	}
}

// Refresh drops cached pages of this resource and reloads the current page. It
// returns the load error, or ctx's error if ctx ends first.
func (t *Table[T, R]) Refresh(ctx context.Context) error {
	t.cfg.Cache.Invalidate(t.cfg.Resource)
	t.reload()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until every started load, prefetches included, has finished.
func (t *Table[T, R]) Wait() {
	t.wg.Wait()
}

func (t *Table[T, R]) View() View[T, R] {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := View[T, R]{
		Rows:          slices.Clone(t.page.Data),
		Meta:          t.page.Meta,
		Links:         t.page.Links,
		Options:       t.used,
		Pagination:    t.pagination,
		ColumnFilters: slices.Clone(t.columnFilters),
		GlobalFilter:  t.globalFilter,
		Sorting:       slices.Clone(t.sorting),
		Loading:       t.loading,
		Selection:     t.selectionLocked(),
	}
	if t.err != nil {
		v.Err = t.err.Error()
	}
	return v
}

func (t *Table[T, R]) notify() {
	if t.cfg.OnChange != nil {
		t.cfg.OnChange()
	}
}

func isEmptyFilter(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	}
	_, ok := query.FormatValue(v)
	return !ok
}
