package table

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"StockDesk/internal/cache"
	"StockDesk/internal/query"
	"StockDesk/internal/resource"
)

type rel string

type row struct {
	ID int `json:"id"`
}

type fakeAPI struct {
	mu     sync.Mutex
	calls  []query.Params
	last   int
	empty  bool
	noMeta bool
	gates  map[int]chan struct{}
	fail   map[int]error
	// once gates only the first call for a page.
	once    map[int]chan struct{}
	version int
}

func (f *fakeAPI) load(ctx context.Context, opts query.Options[rel]) (resource.Page[row], error) {
	f.mu.Lock()
	f.calls = append(f.calls, query.Encode(opts))
	gate := f.gates[opts.Page]
	if g, ok := f.once[opts.Page]; ok {
		gate = g
		delete(f.once, opts.Page)
	}
	err := f.fail[opts.Page]
	id := f.version*100 + opts.Page
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return resource.Page[row]{}, ctx.Err()
		}
	}
	if err != nil {
		return resource.Page[row]{}, err
	}

	page := resource.Page[row]{Data: []row{{ID: id}}}
	if f.empty {
		page.Data = []row{}
	}
	if !f.noMeta {
		page.Meta = &resource.Meta{CurrentPage: opts.Page, LastPage: f.last, PerPage: opts.PerPage}
	}
	return page, nil
}

func (f *fakeAPI) pages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, 0, len(f.calls))
	for _, c := range f.calls {
		v, _ := c.Get("page")
		n, _ := strconv.Atoi(v)
		out = append(out, n)
	}
	return out
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) lastCall() query.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func newTable(t *testing.T, api *fakeAPI, cfg Config[rel]) *Table[row, rel] {
	t.Helper()
	if cfg.Resource == "" {
		cfg.Resource = "products"
	}
	tbl := New(context.Background(), api.load, cfg)
	t.Cleanup(tbl.Close)
	tbl.Wait()
	return tbl
}

func TestOptionsPrecedenceAndSortCollapse(t *testing.T) {
	api := &fakeAPI{last: 1}
	tbl := newTable(t, api, Config[rel]{
		Immutable: query.Fields{{Key: "warehouse_id", Value: 7}},
		Include:   []rel{"supplier"},
	})

	tbl.SetColumnFilter("warehouse_id", 9)
	tbl.SetColumnFilter("name", "bolt")
	tbl.SetGlobalFilter("abc")
	tbl.SetSorting([]SortingRule{{ID: "id", Desc: true}, {ID: "name"}})
	tbl.Wait()

	want := query.Params{
		{Key: "filter[warehouse_id]", Value: "7"},
		{Key: "filter[name]", Value: "bolt"},
		{Key: "filter[q]", Value: "abc"},
		{Key: "include", Value: "supplier"},
		{Key: "page", Value: "1"},
		{Key: "per_page", Value: "10"},
		{Key: "sort", Value: "-id"},
		{Key: "has_pagination", Value: "true"},
	}
	if diff := cmp.Diff(want, query.Encode(tbl.Options())); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, query.Encode(tbl.View().Options)); diff != "" {
		t.Fatalf("applied options mismatch (-want +got):\n%s", diff)
	}
	if got := len(tbl.View().Sorting); got != 2 {
		t.Fatalf("all sorting rules should stay in view, got %d", got)
	}
}

func TestEmptySearchAndFilterAreOmitted(t *testing.T) {
	tbl := newTable(t, &fakeAPI{last: 1}, Config[rel]{SearchKey: "search"})

	tbl.SetGlobalFilter("x")
	tbl.SetGlobalFilter("")
	tbl.SetColumnFilter("name", "bolt")
	tbl.SetColumnFilter("name", "")
	tbl.Wait()

	p := query.Encode(tbl.Options())
	for _, k := range []string{"filter[search]", "filter[name]", "sort"} {
		if p.Has(k) {
			t.Fatalf("%s should be absent: %v", k, p)
		}
	}
}

func TestStaleResponseIsDropped(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{last: 5, gates: map[int]chan struct{}{2: gate}}
	tbl := newTable(t, api, Config[rel]{})

	tbl.SetPage(1) // page 2, held by the gate
	tbl.SetPage(2) // page 3, answers first
	for tbl.View().Loading {
		time.Sleep(5 * time.Millisecond)
	}
	close(gate)
	tbl.Wait()

	v := tbl.View()
	if len(v.Rows) != 1 || v.Rows[0].ID != 3 {
		t.Fatalf("expected page 3 rows, got %+v", v.Rows)
	}
	if v.Options.Page != 3 || v.Meta.CurrentPage != 3 {
		t.Fatalf("view should reflect page 3, got options %d meta %d", v.Options.Page, v.Meta.CurrentPage)
	}
}

func TestPrefetchWarmsNextPage(t *testing.T) {
	api := &fakeAPI{last: 3}
	tbl := newTable(t, api, Config[rel]{Cache: cache.New(cache.NewMemoryStore(0), time.Minute)})

	if diff := cmp.Diff([]int{1, 2}, api.pages()); diff != "" {
		t.Fatalf("initial load should prefetch page 2 (-want +got):\n%s", diff)
	}

	tbl.SetPage(1)
	tbl.Wait()
	if diff := cmp.Diff([]int{1, 2, 3}, api.pages()); diff != "" {
		t.Fatalf("page 2 should come from cache and prefetch page 3 (-want +got):\n%s", diff)
	}
	if got := tbl.View().Rows[0].ID; got != 2 {
		t.Fatalf("expected cached page 2, got %d", got)
	}

	tbl.SetPage(2)
	tbl.Wait()
	if diff := cmp.Diff([]int{1, 2, 3}, api.pages()); diff != "" {
		t.Fatalf("last page must not prefetch (-want +got):\n%s", diff)
	}
}

func TestPrefetchGuards(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeAPI
	}{
		{name: "no meta", api: &fakeAPI{last: 3, noMeta: true}},
		{name: "empty page", api: &fakeAPI{last: 3, empty: true}},
		{name: "single page", api: &fakeAPI{last: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newTable(t, tt.api, Config[rel]{Cache: cache.New(cache.NewMemoryStore(0), time.Minute)})
			if diff := cmp.Diff([]int{1}, tt.api.pages()); diff != "" {
				t.Fatalf("no prefetch expected (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrefetchErrorIsSwallowed(t *testing.T) {
	api := &fakeAPI{last: 3, fail: map[int]error{2: &resource.Error{Status: 500, Message: "boom"}}}
	tbl := newTable(t, api, Config[rel]{Cache: cache.New(cache.NewMemoryStore(0), time.Minute)})

	v := tbl.View()
	if v.Err != "" {
		t.Fatalf("prefetch failure leaked into view: %q", v.Err)
	}
	if v.Rows[0].ID != 1 {
		t.Fatalf("expected page 1, got %+v", v.Rows)
	}
}

func TestLoadErrorSurfacesMessage(t *testing.T) {
	api := &fakeAPI{last: 3, fail: map[int]error{1: &resource.Error{Status: 422, Message: "The name field is required."}}}
	tbl := newTable(t, api, Config[rel]{})

	v := tbl.View()
	if v.Err != "The name field is required." || v.Loading {
		t.Fatalf("unexpected view: err=%q loading=%v", v.Err, v.Loading)
	}

	api.mu.Lock()
	api.fail = nil
	api.mu.Unlock()
	if err := tbl.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if tbl.View().Err != "" {
		t.Fatalf("successful reload should clear the error")
	}
}

func TestColumnFiltersAreDebounced(t *testing.T) {
	api := &fakeAPI{last: 5}
	tbl := newTable(t, api, Config[rel]{Debounce: 40 * time.Millisecond})
	tbl.SetPage(3)
	tbl.Wait()

	tbl.SetColumnFilter("name", "a")
	tbl.SetColumnFilter("name", "ab")
	tbl.SetColumnFilter("name", "abc")
	time.Sleep(120 * time.Millisecond)
	tbl.Wait()

	if got := len(api.pages()); got != 3 {
		t.Fatalf("expected one load for the burst, total calls %d", got)
	}
	last := api.lastCall()
	if v, _ := last.Get("filter[name]"); v != "abc" {
		t.Fatalf("expected final filter value, got %q", v)
	}
	if v, _ := last.Get("page"); v != "1" {
		t.Fatalf("filter commit should reset to page 1, got %s", v)
	}
}

func TestFlushFiltersCommitsImmediately(t *testing.T) {
	api := &fakeAPI{last: 1}
	tbl := newTable(t, api, Config[rel]{Debounce: time.Hour})

	tbl.SetColumnFilters([]ColumnFilter{{ID: "sku", Value: "A-1"}, {ID: "name", Value: nil}})
	if tbl.Options().Fields() != nil {
		t.Fatalf("filters must not apply before commit")
	}
	tbl.FlushFilters()
	tbl.Wait()

	want := []ColumnFilter{{ID: "sku", Value: "A-1"}}
	if diff := cmp.Diff(want, tbl.View().ColumnFilters); diff != "" {
		t.Fatalf("committed filters mismatch (-want +got):\n%s", diff)
	}
}

func TestClearFiltersRestoresDefaults(t *testing.T) {
	api := &fakeAPI{last: 5}
	tbl := newTable(t, api, Config[rel]{DefaultPageSize: 25, Debounce: time.Hour})

	tbl.SetPageSize(50)
	tbl.SetPage(2)
	tbl.SetGlobalFilter("bolt")
	tbl.SetSorting([]SortingRule{{ID: "name"}})
	tbl.SetColumnFilter("sku", "A") // still pending
	tbl.ClearFilters()
	tbl.Wait()

	want := query.Params{
		{Key: "page", Value: "1"},
		{Key: "per_page", Value: "25"},
		{Key: "has_pagination", Value: "true"},
	}
	if diff := cmp.Diff(want, query.Encode(tbl.Options())); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if tbl.deb.Pending() {
		t.Fatalf("pending filter commit should be cancelled")
	}
}

func TestRowSelection(t *testing.T) {
	var changes atomic.Int32
	tbl := newTable(t, &fakeAPI{last: 1}, Config[rel]{OnChange: func() { changes.Add(1) }})

	if tbl.ToggleRow("a") {
		t.Fatalf("selection must be off by default")
	}
	tbl.EnableRowSelection(true)
	tbl.ToggleRow("b")
	tbl.ToggleRow("a")
	tbl.ToggleRow("c")
	tbl.ToggleRow("c")
	if diff := cmp.Diff([]string{"a", "b"}, tbl.Selection()); diff != "" {
		t.Fatalf("selection mismatch (-want +got):\n%s", diff)
	}

	tbl.EnableRowSelection(false)
	if len(tbl.Selection()) != 0 {
		t.Fatalf("disabling selection should clear it")
	}
	if changes.Load() == 0 {
		t.Fatalf("OnChange never called")
	}
}

func TestCloseCancelsInFlightLoad(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{last: 1, gates: map[int]chan struct{}{1: gate}}
	tbl := New(context.Background(), api.load, Config[rel]{Resource: "products"})

	tbl.Close()
	tbl.Wait()

	if v := tbl.View(); v.Err != "" || len(v.Rows) != 0 {
		t.Fatalf("cancelled load must not be applied: %+v", v)
	}
	tbl.SetPage(1)
	if got := len(api.pages()); got != 1 {
		t.Fatalf("closed table must not load, calls %d", got)
	}
}

func TestResourceLoaderUsesFacade(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" || r.URL.Query().Get("page") != "1" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":41},{"id":42}],"meta":{"current_page":1,"last_page":1,"per_page":10,"total":2}}`))
	}))
	defer srv.Close()

	client := resource.NewClient(srv.URL, srv.Client())
	tbl := New(context.Background(), ResourceLoader[row, rel](client, "products"), Config[rel]{Resource: "products"})
	defer tbl.Close()
	tbl.Wait()

	v := tbl.View()
	if diff := cmp.Diff([]row{{ID: 41}, {ID: 42}}, v.Rows); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if v.Meta == nil || v.Meta.Total != 2 {
		t.Fatalf("meta not applied: %+v", v.Meta)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRefreshDropsPrefetchStartedBeforeIt(t *testing.T) {
	gate := make(chan struct{})
	api := &fakeAPI{last: 3, once: map[int]chan struct{}{2: gate}}
	qc := cache.New(cache.NewMemoryStore(0), time.Minute)
	tbl := New(context.Background(), api.load, Config[rel]{Resource: "products", Cache: qc})
	t.Cleanup(tbl.Close)

	// initial page 1, then the prefetch of page 2 parks at the gate
	waitFor(t, "first prefetch", func() bool { return api.callCount() >= 2 })

	api.mu.Lock()
	api.version = 2
	api.mu.Unlock()

	refreshed := make(chan error, 1)
	go func() { refreshed <- tbl.Refresh(context.Background()) }()

	next := query.Encode(tbl.Options().WithPage(2))
	waitFor(t, "post-refresh prefetch", func() bool {
		_, ok := qc.Get(context.Background(), "products", cache.KindList, next)
		return ok
	})
	close(gate)
	if err := <-refreshed; err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	tbl.SetPage(1)
	tbl.Wait()
	if got := tbl.View().Rows[0].ID; got != 202 {
		t.Fatalf("page 2 row id = %d, want 202", got)
	}
}
