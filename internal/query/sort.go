package query

import (
	"fmt"
	"strings"
)

// Sort is the single-column wire sort: "", "<field>" or "-<field>".
type Sort string

func Asc(field string) Sort { return Sort(field) }

func Desc(field string) Sort { return Sort("-" + field) }

// ParseSort accepts the wire form and rejects multi-column or malformed values.
func ParseSort(s string) (Sort, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	field := strings.TrimPrefix(s, "-")
	if field == "" || strings.ContainsAny(field, ", -") {
		return "", fmt.Errorf("%w: sort %q", ErrInvalidOptions, s)
	}
	return Sort(s), nil
}

func (s Sort) Field() string { return strings.TrimPrefix(string(s), "-") }

func (s Sort) Descending() bool { return strings.HasPrefix(string(s), "-") }

func (s Sort) IsZero() bool { return s == "" }

func (s Sort) validate() error {
	_, err := ParseSort(string(s))
	return err
}
