package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/squirrel"

	"StockDesk/internal/registry"
)

// Values validates a write body against res: every key must be a writable column and
// every value must convert to the column type. Problems are reported per field.
func Values(res *registry.Resource, body map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(body))
	qerr := &QueryError{}
	for k, v := range body {
		if !res.IsWritable(k) {
			qerr.add(k, "is not writable")
			continue
		}
		col, _ := res.Column(k)
		val, err := coerce(col, v)
		if err != nil {
			qerr.add(k, strings.TrimPrefix(err.Error(), k+": "))
			continue
		}
		out[k] = val
	}
	if len(qerr.Fields) > 0 {
		return nil, qerr
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BuildInsert inserts one row with the given id and returns every column.
func BuildInsert(res *registry.Resource, id any, values map[string]any) squirrel.InsertBuilder {
	cols := []string{"id"}
	vals := []any{id}
	for _, k := range sortedKeys(values) {
		if k == "id" {
			continue
		}
		cols = append(cols, k)
		vals = append(vals, values[k])
	}
	return squirrel.Insert(res.Table).
		PlaceholderFormat(squirrel.Dollar).
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING " + strings.Join(res.ColumnNames(), ", "))
}

// BuildUpdate sets values on the row with id and returns every column. updated_at is
// bumped when the resource has it.
func BuildUpdate(res *registry.Resource, id any, values map[string]any) (squirrel.UpdateBuilder, error) {
	ub := squirrel.Update(res.Table).PlaceholderFormat(squirrel.Dollar)
	n := 0
	for _, k := range sortedKeys(values) {
		if k == "id" || k == "updated_at" {
			continue
		}
		ub = ub.Set(k, values[k])
		n++
	}
	if n == 0 {
		return ub, fmt.Errorf("%w: nothing to update", ErrBadQuery)
	}
	if _, ok := res.Column("updated_at"); ok {
		ub = ub.Set("updated_at", squirrel.Expr("now()"))
	}
	return ub.
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(res.ColumnNames(), ", ")), nil
}
