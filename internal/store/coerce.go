package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"StockDesk/internal/registry"
)

// coerce converts a wire value (query string text or decoded JSON) into the Go value
// bound for a column of the given type. nil passes through as SQL NULL.
func coerce(col registry.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		return coerceString(col, s)
	}

	switch col.Type {
	case "int":
		switch n := v.(type) {
		case float64:
			if n != float64(int64(n)) {
				return nil, fmt.Errorf("%s: %v is not an integer", col.Name, n)
			}
			return int64(n), nil
		case json.Number:
			return n.Int64()
		case int, int64:
			return n, nil
		}
	case "decimal":
		switch n := v.(type) {
		case float64:
			return decimal.NewFromFloat(n), nil
		case json.Number:
			return decimal.NewFromString(n.String())
		case decimal.Decimal:
			return n, nil
		}
	case "bool":
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case "time":
		if t, ok := v.(time.Time); ok {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%s: unexpected %T for %s column", col.Name, v, col.Type)
}

func coerceString(col registry.Column, s string) (any, error) {
	switch col.Type {
	case "uuid":
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid uuid %q", col.Name, s)
		}
		// squirrel expands arrays into IN lists, so uuids travel as text
		return id.String(), nil
	case "int":
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid integer %q", col.Name, s)
		}
		return n, nil
	case "decimal":
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%s: invalid number %q", col.Name, s)
		}
		return d, nil
	case "bool":
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid boolean %q", col.Name, s)
		}
		return b, nil
	case "time":
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid time %q, want RFC 3339", col.Name, s)
		}
		return t, nil
	default:
		return s, nil
	}
}
