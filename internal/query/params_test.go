package query

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type testRelation string

const (
	relAddress  testRelation = "address"
	relProducts testRelation = "products"
)

func TestEncode_ListWithFilters(t *testing.T) {
	opts := Options[testRelation]{
		Filter:  Fields{{Key: "active", Value: true}, {Key: "name", Value: ""}},
		Page:    2,
		PerPage: 20,
	}

	got := Encode(opts)
	want := Params{
		{Key: "filter[active]", Value: "true"},
		{Key: "page", Value: "2"},
		{Key: "per_page", Value: "20"},
		{Key: "has_pagination", Value: "true"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
	for _, absent := range []string{"filter[name]", "sort", "include"} {
		if got.Has(absent) {
			t.Fatalf("%s must be omitted", absent)
		}
	}
}

func TestEncode_ArrayFilterIsCommaJoined(t *testing.T) {
	got := Encode(Options[testRelation]{Filter: Fields{{Key: "id", Value: []int{1, 2, 3}}}})
	if v, _ := got.Get("filter[id]"); v != "1,2,3" {
		t.Fatalf("expected 1,2,3, got %q", v)
	}
}

func TestEncode_ArraySkipsEmptyElements(t *testing.T) {
	got := Encode(Options[testRelation]{Filter: Fields{{Key: "tags", Value: []any{"a", nil, "", "b"}}}})
	if v, _ := got.Get("filter[tags]"); v != "a,b" {
		t.Fatalf("expected a,b, got %q", v)
	}
}

func TestEncode_OmitsEmptyValues(t *testing.T) {
	var nilPtr *string
	empty := ""
	opts := Options[testRelation]{Filter: Fields{
		{Key: "a", Value: nil},
		{Key: "b", Value: ""},
		{Key: "c", Value: []string{}},
		{Key: "d", Value: nilPtr},
		{Key: "e", Value: &empty},
		{Key: "f", Value: time.Time{}},
		{Key: "g", Value: []any(nil)},
		{Key: "h", Value: []string{""}},
		{Key: "i", Value: []any{nil, ""}},
	}}

	got := Encode(opts)
	want := Params{{Key: "has_pagination", Value: "true"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("empty values leaked (-want +got):\n%s", diff)
	}
}

func TestEncode_ScalarFormatting(t *testing.T) {
	active := false
	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	opts := Options[testRelation]{Filter: Fields{
		{Key: "active", Value: &active},
		{Key: "price", Value: 12.5},
		{Key: "count", Value: int32(7)},
		{Key: "created_at", Value: at},
		{Key: "codes", Value: []string{"WH-1", "WH-2"}},
	}}

	got := Encode(opts)
	want := Params{
		{Key: "filter[active]", Value: "false"},
		{Key: "filter[price]", Value: "12.5"},
		{Key: "filter[count]", Value: "7"},
		{Key: "filter[created_at]", Value: "2024-03-01T10:30:00Z"},
		{Key: "filter[codes]", Value: "WH-1,WH-2"},
		{Key: "has_pagination", Value: "true"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_IncludeSortAndPagination(t *testing.T) {
	opts := Options[testRelation]{
		Include:      []testRelation{relAddress, relProducts},
		Sort:         Desc("id"),
		NoPagination: true,
	}

	got := Encode(opts)
	want := Params{
		{Key: "include", Value: "address,products"},
		{Key: "sort", Value: "-id"},
		{Key: "has_pagination", Value: "false"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_ZeroPageIsDropped(t *testing.T) {
	got := Encode(Options[testRelation]{Page: 0, PerPage: 0})
	if got.Has("page") || got.Has("per_page") {
		t.Fatalf("zero page/per_page must be omitted: %v", got)
	}
}

func TestEncode_IsPureAndDoesNotMutate(t *testing.T) {
	ids := []int{3, 1}
	filter := Fields{{Key: "id", Value: ids}, {Key: "q", Value: "main"}, {Key: "id", Value: []int{9}}}
	opts := Options[testRelation]{Filter: filter, Include: []testRelation{relAddress}, Page: 1, PerPage: 10}

	first := Encode(opts)
	second := Encode(opts)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("encode not deterministic:\n%s", diff)
	}
	if v, _ := first.Get("filter[id]"); v != "9" {
		t.Fatalf("later duplicate key should win, got %q", v)
	}
	if len(filter) != 3 || filter[0].Value.([]int)[0] != 3 {
		t.Fatalf("input filter mutated: %v", filter)
	}
}

func TestParamsValues(t *testing.T) {
	p := Encode(Options[testRelation]{Filter: Fields{{Key: "id", Value: []int{1, 2}}}, Page: 3})
	v := p.Values()
	if v.Get("filter[id]") != "1,2" || v.Get("page") != "3" || v.Get("has_pagination") != "true" {
		t.Fatalf("unexpected url values: %v", v)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		opts Options[testRelation]
		ok   bool
	}{
		{"zero value", Options[testRelation]{}, true},
		{"negative page", Options[testRelation]{Page: -1}, false},
		{"negative per page", Options[testRelation]{PerPage: -5}, false},
		{"multi sort", Options[testRelation]{Sort: "name,-id"}, false},
		{"lone dash", Options[testRelation]{Sort: "-"}, false},
		{"known include", Options[testRelation]{Include: []testRelation{relAddress}}, true},
		{"unknown include", Options[testRelation]{Include: []testRelation{"owner"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate(relAddress, relProducts)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidOptions) {
				t.Fatalf("expected ErrInvalidOptions, got %v", err)
			}
		})
	}
}

func TestSortHelpers(t *testing.T) {
	s, err := ParseSort("-created_at")
	if err != nil {
		t.Fatalf("ParseSort: %v", err)
	}
	if s.Field() != "created_at" || !s.Descending() {
		t.Fatalf("unexpected sort: %q", s)
	}
	if Asc("name").Descending() {
		t.Fatalf("Asc must not be descending")
	}
}

func TestFieldsMergeKeepsPosition(t *testing.T) {
	base := Fields{{Key: "warehouse_id", Value: 1}, {Key: "name", Value: "x"}}
	got := base.Merge(Fields{{Key: "warehouse_id", Value: 7}, {Key: "active", Value: true}})
	want := Fields{{Key: "warehouse_id", Value: 7}, {Key: "name", Value: "x"}, {Key: "active", Value: true}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merge mismatch (-want +got):\n%s", diff)
	}
	if base[0].Value != 1 {
		t.Fatalf("merge mutated receiver")
	}
}
