package store

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"StockDesk/internal/logger"
	"StockDesk/internal/registry"
)

func selectBuilder() squirrel.SelectBuilder {
	return squirrel.SelectBuilder{}.PlaceholderFormat(squirrel.Dollar)
}

func columns(res *registry.Resource, alias string) []string {
	cols := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		cols[i] = alias + "." + c.Name
	}
	return cols
}

// BuildListQuery selects one page of res. Without pagination every row is returned.
func BuildListQuery(res *registry.Resource, q ListQuery) squirrel.SelectBuilder {
	sb := selectBuilder().
		Columns(columns(res, "main")...).
		From(fmt.Sprintf("%s AS main", res.Table))

	if where := buildWhereClause(res, q); where != nil {
		sb = sb.Where(where)
	}

	order := "main." + q.Sort.Field()
	if q.Sort.Descending() {
		order += " DESC"
	}
	sb = sb.OrderBy(order)
	if q.Sort.Field() != "id" {
		sb = sb.OrderBy("main.id")
	}

	if q.Paginate {
		sb = sb.Limit(uint64(q.PerPage))
		if off := q.Offset(); off > 0 {
			sb = sb.Offset(off)
		}
	}
	return sb
}

// BuildCountQuery counts the rows matching q's filters.
func BuildCountQuery(res *registry.Resource, q ListQuery) squirrel.SelectBuilder {
	sb := selectBuilder().
		Column("COUNT(*)").
		From(fmt.Sprintf("%s AS main", res.Table))
	if where := buildWhereClause(res, q); where != nil {
		sb = sb.Where(where)
	}
	return sb
}

func BuildShowQuery(res *registry.Resource, id any) squirrel.SelectBuilder {
	return selectBuilder().
		Columns(columns(res, "main")...).
		From(fmt.Sprintf("%s AS main", res.Table)).
		Where(squirrel.Eq{"main.id": id}).
		Limit(1)
}

// BuildIncludeQuery loads the rows of rel for a set of parent keys. For belongs_to keys
// are the parents' fk values, for has_many the parents' pk values; either way the
// result is matched back on MatchColumn.
func BuildIncludeQuery(rel *registry.Relation, keys []any) squirrel.SelectBuilder {
	target := rel.Target()
	col := MatchColumn(rel)
	sb := selectBuilder().
		Columns(columns(target, "rel")...).
		From(fmt.Sprintf("%s AS rel", target.Table)).
		Where(squirrel.Eq{"rel." + col: keys})
	return sb.OrderBy("rel.id")
}

// MatchColumn is the column of the related row that joins it to its parent.
func MatchColumn(rel *registry.Relation) string {
	if rel.Type == "belongs_to" {
		return rel.PK
	}
	return rel.FK
}

// ParentColumn is the column of the parent row holding the join key.
func ParentColumn(rel *registry.Relation) string {
	if rel.Type == "belongs_to" {
		return rel.FK
	}
	return rel.PK
}

func buildWhereClause(res *registry.Resource, q ListQuery) squirrel.Sqlizer {
	var exprs []squirrel.Sqlizer

	for _, f := range q.Filters {
		field := "main." + f.Column
		var cond squirrel.Sqlizer
		switch f.Op {
		case "eq", "in":
			cond = squirrel.Eq{field: f.Value}
		case "lt":
			cond = squirrel.Lt{field: f.Value}
		case "lte":
			cond = squirrel.LtOrEq{field: f.Value}
		case "gt":
			cond = squirrel.Gt{field: f.Value}
		case "gte":
			cond = squirrel.GtOrEq{field: f.Value}
		case "start":
			cond = squirrel.ILike{field: escapeLike(f.Value) + "%"}
		case "end":
			cond = squirrel.ILike{field: "%" + escapeLike(f.Value)}
		case "cnt":
			cond = squirrel.ILike{field: "%" + escapeLike(f.Value) + "%"}
		default:
			logger.Warn("unknown_filter_operator", map[string]any{"column": f.Column, "op": f.Op})
			continue
		}
		exprs = append(exprs, cond)
	}

	if q.Search != "" && len(res.Search) > 0 {
		pattern := "%" + escapeLike(q.Search) + "%"
		or := make(squirrel.Or, 0, len(res.Search))
		for _, col := range res.Search {
			or = append(or, squirrel.ILike{"main." + col: pattern})
		}
		exprs = append(exprs, or)
	}

	if len(exprs) == 0 {
		return nil
	}
	return squirrel.And(exprs)
}

func escapeLike(v any) string {
	s, _ := v.(string)
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
