package store

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"StockDesk/internal/registry"
)

// ScanRows reads rows into column-keyed maps with JSON-friendly values: uuids as
// strings and numerics as decimals.
func ScanRows(rows pgx.Rows) ([]map[string]any, error) {
	if rows == nil {
		return nil, fmt.Errorf("rows is nil")
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]map[string]any, 0, 16)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			if i >= len(vals) {
				break
			}
			row[fd.Name] = normalize(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case [16]byte:
		return uuid.UUID(x).String()
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		dv, err := x.Value()
		if err != nil {
			return nil
		}
		s, ok := dv.(string)
		if !ok {
			return dv
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return s
		}
		return d
	default:
		return v
	}
}

// IncludeKeys collects the distinct non-null join keys of rows for rel.
func IncludeKeys(rows []map[string]any, rel *registry.Relation) []any {
	col := ParentColumn(rel)
	seen := make(map[any]bool, len(rows))
	keys := make([]any, 0, len(rows))
	for _, r := range rows {
		k := r[col]
		if k == nil || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}

// Attach sets rows[i][name] from related: a single object (or nil) for belongs_to,
// a list (possibly empty) for has_many.
func Attach(rows []map[string]any, name string, rel *registry.Relation, related []map[string]any) {
	match := MatchColumn(rel)
	parent := ParentColumn(rel)

	grouped := make(map[any][]map[string]any, len(related))
	for _, r := range related {
		grouped[r[match]] = append(grouped[r[match]], r)
	}

	for _, row := range rows {
		group := grouped[row[parent]]
		if rel.Type == "belongs_to" {
			if len(group) > 0 {
				row[name] = group[0]
			} else {
				row[name] = nil
			}
			continue
		}
		if group == nil {
			group = []map[string]any{}
		}
		row[name] = group
	}
}
