// Package query turns list options into the flat query-string shape the REST backend
// expects: filter[<field>]=<comma-joined>, include, page, per_page, sort, has_pagination.
package query

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidOptions = errors.New("invalid list options")

// Options describes one list/detail request. R is the entity's relation vocabulary, so
// including a relation of another entity does not compile.
//
// Page and PerPage are 1-based; zero means "not specified" and is left off the wire.
type Options[R ~string] struct {
	Filter       Filterer
	Include      []R
	Page         int
	PerPage      int
	Sort         Sort
	NoPagination bool
}

// Fields returns the filter set, never nil-dereferencing an absent filter.
func (o Options[R]) Fields() Fields {
	if o.Filter == nil {
		return nil
	}
	return o.Filter.FilterFields()
}

// Validate checks the structural invariants. When allowed is non-empty every include
// must be one of them.
func (o Options[R]) Validate(allowed ...R) error {
	if o.Page < 0 {
		return fmt.Errorf("%w: page %d", ErrInvalidOptions, o.Page)
	}
	if o.PerPage < 0 {
		return fmt.Errorf("%w: per_page %d", ErrInvalidOptions, o.PerPage)
	}
	if err := o.Sort.validate(); err != nil {
		return err
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, rel := range o.Include {
		if !slices.Contains(allowed, rel) {
			return fmt.Errorf("%w: unknown relation %q", ErrInvalidOptions, string(rel))
		}
	}
	return nil
}

// WithPage returns a copy pointing at another page; filters and sort are shared
// read-only.
func (o Options[R]) WithPage(page int) Options[R] {
	o.Page = page
	return o
}

// Relations converts the typed include list to plain names.
func (o Options[R]) Relations() []string {
	out := make([]string, len(o.Include))
	for i, r := range o.Include {
		out[i] = string(r)
	}
	return out
}
