package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"StockDesk/internal/logger"
	"StockDesk/internal/registry"
	"StockDesk/internal/store"
)

type nestedRows struct {
	name   string
	rel    *registry.Relation
	values []map[string]any
}

// Create serves POST /{resource}. Rows of nested has_many relations may be sent in
// the same body; parent and children are inserted in one transaction.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	res, err := h.resource(chi.URLParam(r, "resource"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	body, _, err := decodeBody(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	nested, err := splitNested(res, body)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	vals, err := store.Values(res, body)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	ctx := r.Context()
	tx, err := h.db.Begin(ctx)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := h.newID()
	sqlStr, args, err := store.BuildInsert(res, id, vals).ToSql()
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	rows, err := query(ctx, tx, sqlStr, args)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	row := rows[0]

	for _, n := range nested {
		children := make([]map[string]any, 0, len(n.values))
		for _, cv := range n.values {
			cv[n.rel.FK] = id
			sqlStr, args, err := store.BuildInsert(n.rel.Target(), h.newID(), cv).ToSql()
			if err != nil {
				writeFailure(w, r, err)
				return
			}
			inserted, err := query(ctx, tx, sqlStr, args)
			if err != nil {
				writeFailure(w, r, err)
				return
			}
			children = append(children, inserted...)
		}
		row[n.name] = children
	}

	if err := tx.Commit(ctx); err != nil {
		writeFailure(w, r, err)
		return
	}
	audit(r, res.Name, id)
	writeJSON(w, http.StatusCreated, map[string]any{"data": row})
}

// Update serves PATCH /{resource}/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	body, _, err := decodeBody(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	h.update(w, r, body)
}

// Override serves POST /{resource}/{id}, which is only an update in disguise: the
// body must carry _method=PATCH. Multipart uploads arrive this way.
func (h *Handler) Override(w http.ResponseWriter, r *http.Request) {
	body, method, err := decodeBody(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if method != http.MethodPatch && method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "The POST method is not supported for this route.", nil)
		return
	}
	h.update(w, r, body)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, body map[string]any) {
	res, err := h.resource(chi.URLParam(r, "resource"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	id, err := recordID(r)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	vals, err := store.Values(res, body)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	ub, err := store.BuildUpdate(res, id, vals)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	sqlStr, args, err := ub.ToSql()
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	rows, err := query(r.Context(), h.db, sqlStr, args)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusNotFound, "Not found.", nil)
		return
	}
	audit(r, res.Name, id)
	writeJSON(w, http.StatusOK, map[string]any{"data": rows[0]})
}

// splitNested removes nested relation rows from body and validates them against the
// target resource. The foreign key is filled in on insert.
func splitNested(res *registry.Resource, body map[string]any) ([]nestedRows, error) {
	var out []nestedRows
	qerr := &store.QueryError{Fields: map[string][]string{}}
	for _, name := range res.Nested {
		raw, ok := body[name]
		if !ok {
			continue
		}
		delete(body, name)
		items, ok := raw.([]any)
		if !ok {
			qerr.Fields[name] = append(qerr.Fields[name], "must be a list")
			continue
		}
		rel := res.Relations[name]
		n := nestedRows{name: name, rel: rel}
		for i, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				qerr.Fields[fmt.Sprintf("%s.%d", name, i)] = []string{"must be an object"}
				continue
			}
			delete(m, rel.FK)
			delete(m, "id")
			vals, err := store.Values(rel.Target(), m)
			if err != nil {
				var ve *store.QueryError
				if errors.As(err, &ve) {
					for k, msgs := range ve.Fields {
						key := fmt.Sprintf("%s.%d.%s", name, i, k)
						qerr.Fields[key] = append(qerr.Fields[key], msgs...)
					}
					continue
				}
				return nil, err
			}
			n.values = append(n.values, vals)
		}
		out = append(out, n)
	}
	if len(qerr.Fields) > 0 {
		return nil, qerr
	}
	return out, nil
}

func audit(r *http.Request, resourceName, id string) {
	module := r.Header.Get("X-Audit-Module")
	if module == "" {
		return
	}
	logger.Info("audit", map[string]any{
		"module":     module,
		"action":     r.Header.Get("X-Audit-Action"),
		"resource":   resourceName,
		"id":         id,
		"request_id": r.Header.Get("X-Request-ID"),
	})
}
