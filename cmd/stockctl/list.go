package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"StockDesk/internal/logger"
	"StockDesk/internal/query"
	"StockDesk/internal/table"
)

// relation is the open relation vocabulary of a resource picked at run time.
type relation string

type record = map[string]any

func runList(ctx context.Context, e env, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	var (
		debug     bool
		filters   pairs
		name      = fs.String("resource", "", "resource to list, e.g. warehouses")
		search    = fs.String("q", "", "free-text search")
		page      = fs.Int("page", 1, "1-based page")
		perPage   = fs.Int("per-page", 0, "rows per page (default from TABLE_PAGE_SIZE)")
		sortBy    = fs.String("sort", "", "sort column, -column for descending")
		include   = fs.String("include", "", "comma-separated relations")
		all       = fs.Bool("all", false, "walk every page")
		prefetch  = fs.Bool("prefetch", true, "warm the next page while printing")
		resources = fs.String("resources", "", "resource definitions dir (default RESOURCES_DIR)")
	)
	commonFlags(fs, &debug)
	fs.Var(&filters, "filter", "column filter key=value, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger.SetDebug(debug)

	if err := loadCatalog(&e, *resources); err != nil {
		return err
	}
	res, err := e.catalog.Get(*name)
	if err != nil {
		return fmt.Errorf("resource %q: %w", *name, err)
	}
	for _, kv := range filters {
		column, _, _ := strings.Cut(kv[0], "__")
		if !res.IsFilterable(column) {
			return fmt.Errorf("%s: %q is not filterable", res.Name, kv[0])
		}
	}
	var rels []relation
	for _, r := range strings.Split(*include, ",") {
		if r = strings.TrimSpace(r); r == "" {
			continue
		}
		if _, ok := res.Relation(r); !ok {
			return fmt.Errorf("%s: unknown relation %q", res.Name, r)
		}
		rels = append(rels, relation(r))
	}
	sort := query.Sort(*sortBy)
	if !sort.IsZero() {
		if _, ok := res.Column(sort.Field()); !ok {
			return fmt.Errorf("%s: unknown sort column %q", res.Name, sort.Field())
		}
	}

	cfg := table.Config[relation]{
		Resource:        res.Name,
		Include:         rels,
		DefaultPageSize: e.cfg.Table.DefaultPageSize,
		Debounce:        e.cfg.Table.Debounce,
	}
	if *prefetch {
		cfg.Cache = newCache(ctx, e.cfg)
	}
	tbl := table.New(ctx, table.ResourceLoader[record, relation](e.client, res.Name), cfg)
	defer tbl.Close()

	if *perPage > 0 {
		tbl.SetPageSize(*perPage)
	}
	if len(filters) > 0 {
		cfs := make([]table.ColumnFilter, len(filters))
		for i, kv := range filters {
			cfs[i] = table.ColumnFilter{ID: kv[0], Value: kv[1]}
		}
		tbl.SetColumnFilters(cfs)
		tbl.FlushFilters()
	}
	if *search != "" {
		tbl.SetGlobalFilter(*search)
	}
	if !sort.IsZero() {
		tbl.SetSorting([]table.SortingRule{{ID: sort.Field(), Desc: sort.Descending()}})
	}
	if *page > 1 {
		tbl.SetPage(*page - 1)
	}

	out := json.NewEncoder(os.Stdout)
	for {
		if err := waitLoaded(ctx, tbl); err != nil {
			return err
		}
		v := tbl.View()
		if v.Err != "" {
			return fmt.Errorf("list %s: %s", res.Name, v.Err)
		}
		for _, row := range v.Rows {
			if err := out.Encode(row); err != nil {
				return err
			}
		}
		if !*all || v.Meta == nil || v.Meta.CurrentPage >= v.Meta.LastPage {
			if v.Meta != nil {
				return out.Encode(map[string]any{"meta": v.Meta})
			}
			return nil
		}
		tbl.SetPage(v.Pagination.Index + 1)
	}
}

// waitLoaded blocks until the table has settled or ctx ends.
func waitLoaded(ctx context.Context, tbl *table.Table[record, relation]) error {
	done := make(chan struct{})
	go func() {
		tbl.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
