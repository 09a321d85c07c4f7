package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"StockDesk/internal/logger"
	"StockDesk/internal/resource"
	"StockDesk/internal/store"
)

type listResponse struct {
	Data  []map[string]any `json:"data"`
	Meta  *resource.Meta   `json:"meta,omitempty"`
	Links *resource.Links  `json:"links,omitempty"`
}

// List serves GET /{resource}. With has_pagination=false every matching row is
// returned and meta/links are left out.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.resource(chi.URLParam(r, "resource"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	q, err := store.ParseListQuery(r.URL.Query(), res, h.searchKey)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	sqlStr, args, err := store.BuildListQuery(res, q).ToSql()
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	logger.Debug("list_query", map[string]any{"resource": res.Name, "sql": sqlStr, "args": len(args)})

	ctx := r.Context()
	rows, err := query(ctx, h.db, sqlStr, args)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := loadIncludes(ctx, h.db, res, rows, q.Include); err != nil {
		writeFailure(w, r, err)
		return
	}

	out := listResponse{Data: rows}
	if q.Paginate {
		countSQL, countArgs, err := store.BuildCountQuery(res, q).ToSql()
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		var total int
		if err := h.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
			writeFailure(w, r, err)
			return
		}
		out.Meta, out.Links = paginate(r.URL, q, total, len(rows))
	}
	writeJSON(w, http.StatusOK, out)
}

func paginate(u *url.URL, q store.ListQuery, total, count int) (*resource.Meta, *resource.Links) {
	last := 1
	if total > 0 {
		last = (total + q.PerPage - 1) / q.PerPage
	}
	meta := &resource.Meta{
		CurrentPage: q.Page,
		LastPage:    last,
		PerPage:     q.PerPage,
		Total:       total,
		Path:        u.Path,
	}
	if count > 0 {
		from := (q.Page-1)*q.PerPage + 1
		to := from + count - 1
		meta.From, meta.To = &from, &to
	}

	pageURL := func(p int) *string {
		v := u.Query()
		v.Set("page", strconv.Itoa(p))
		s := fmt.Sprintf("%s?%s", u.Path, v.Encode())
		return &s
	}
	links := &resource.Links{First: pageURL(1), Last: pageURL(last)}
	if q.Page > 1 {
		links.Prev = pageURL(q.Page - 1)
	}
	if q.Page < last {
		links.Next = pageURL(q.Page + 1)
	}
	return meta, links
}
