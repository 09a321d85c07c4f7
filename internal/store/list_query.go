// Package store turns wire list parameters into SQL for the reference backend. It is
// the server-side inverse of package query: filter[<field>], include, page, per_page,
// sort and has_pagination are parsed against the resource catalog and rendered with
// squirrel using $n placeholders.
package store

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"StockDesk/internal/query"
	"StockDesk/internal/registry"
)

const MaxPerPage = 100

var ErrBadQuery = errors.New("bad query")

// QueryError maps offending parameters to messages; it unwraps to ErrBadQuery.
type QueryError struct {
	Fields map[string][]string
}

func (e *QueryError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "invalid query: " + strings.Join(parts, "; ")
}

func (e *QueryError) Unwrap() error { return ErrBadQuery }

func (e *QueryError) add(key, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[key] = append(e.Fields[key], msg)
}

// Filter is one WHERE condition. Op is one of eq, in, lt, lte, gt, gte, start, end, cnt.
type Filter struct {
	Column string
	Op     string
	Value  any
}

type ListQuery struct {
	Filters  []Filter
	Search   string
	Include  []string
	Page     int
	PerPage  int
	Sort     query.Sort
	Paginate bool
}

func (q ListQuery) Offset() uint64 {
	if q.Page <= 1 {
		return 0
	}
	return uint64((q.Page - 1) * q.PerPage)
}

var filterOps = map[string]bool{
	"eq": true, "in": true, "lt": true, "lte": true, "gt": true, "gte": true,
	"start": true, "end": true, "cnt": true,
}

// ParseListQuery reads list parameters for res. searchKey names the free-text filter
// (usually "q"). Filters are returned sorted by key so equal queries render equal SQL.
func ParseListQuery(v url.Values, res *registry.Resource, searchKey string) (ListQuery, error) {
	out := ListQuery{Page: 1, PerPage: res.PerPage, Paginate: true}
	qerr := &QueryError{}

	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := v.Get(key)
		switch {
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			name := key[len("filter[") : len(key)-1]
			if name == searchKey {
				if len(res.Search) == 0 {
					qerr.add(key, "search is not supported")
					continue
				}
				out.Search = raw
				continue
			}
			f, err := parseFilter(res, name, raw)
			if err != nil {
				qerr.add(key, err.Error())
				continue
			}
			out.Filters = append(out.Filters, f)

		case key == "include":
			for _, rel := range strings.Split(raw, ",") {
				rel = strings.TrimSpace(rel)
				if rel == "" {
					continue
				}
				if _, ok := res.Relation(rel); !ok {
					qerr.add(key, fmt.Sprintf("unknown relation %q", rel))
					continue
				}
				out.Include = append(out.Include, rel)
			}

		case key == "page":
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				qerr.add(key, "must be a positive integer")
				continue
			}
			out.Page = n

		case key == "per_page":
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				qerr.add(key, "must be a positive integer")
				continue
			}
			out.PerPage = min(n, MaxPerPage)

		case key == "sort":
			s, err := query.ParseSort(raw)
			if err != nil {
				qerr.add(key, "must be <field> or -<field>")
				continue
			}
			if _, ok := res.Column(s.Field()); !s.IsZero() && !ok {
				qerr.add(key, fmt.Sprintf("unknown column %q", s.Field()))
				continue
			}
			out.Sort = s

		case key == "has_pagination":
			b, err := strconv.ParseBool(raw)
			if err != nil {
				qerr.add(key, "must be true or false")
				continue
			}
			out.Paginate = b
		}
	}

	if len(qerr.Fields) > 0 {
		return ListQuery{}, qerr
	}
	if out.Sort.IsZero() {
		out.Sort = query.Sort(res.Sort)
	}
	if out.Sort.IsZero() {
		out.Sort = query.Asc("id")
	}
	return out, nil
}

func parseFilter(res *registry.Resource, name, raw string) (Filter, error) {
	column, op := name, "eq"
	if c, o, ok := strings.Cut(name, "__"); ok {
		column, op = c, o
	}
	if !filterOps[op] {
		return Filter{}, fmt.Errorf("unknown operator %q", op)
	}
	if !res.IsFilterable(column) {
		return Filter{}, fmt.Errorf("%q is not filterable", column)
	}
	col, _ := res.Column(column)

	switch op {
	case "start", "end", "cnt":
		if col.Type != "string" && col.Type != "text" {
			return Filter{}, fmt.Errorf("%s needs a text column", op)
		}
		return Filter{Column: column, Op: op, Value: raw}, nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) > 1 || op == "in" {
		vals := make([]any, 0, len(parts))
		for _, p := range parts {
			val, err := coerce(col, p)
			if err != nil {
				return Filter{}, err
			}
			vals = append(vals, val)
		}
		if op != "eq" && op != "in" {
			return Filter{}, fmt.Errorf("%s takes a single value", op)
		}
		return Filter{Column: column, Op: "in", Value: vals}, nil
	}

	val, err := coerce(col, raw)
	if err != nil {
		return Filter{}, err
	}
	return Filter{Column: column, Op: op, Value: val}, nil
}
