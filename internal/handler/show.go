package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"StockDesk/internal/registry"
	"StockDesk/internal/store"
)

func newUUID() string { return uuid.NewString() }

// recordID validates the {id} path parameter. A malformed id is reported as not found.
func recordID(r *http.Request) (string, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return "", pgx.ErrNoRows
	}
	return id.String(), nil
}

// Show serves GET /{resource}/{id}, honouring include.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
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
	include, err := parseInclude(res, r.URL.Query().Get("include"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	row, err := h.fetch(r, h.db, res, id, include)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": row})
}

func (h *Handler) fetch(r *http.Request, q Querier, res *registry.Resource, id string, include []string) (map[string]any, error) {
	sqlStr, args, err := store.BuildShowQuery(res, id).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := query(r.Context(), q, sqlStr, args)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pgx.ErrNoRows
	}
	if err := loadIncludes(r.Context(), q, res, rows, include); err != nil {
		return nil, err
	}
	return rows[0], nil
}

func parseInclude(res *registry.Resource, raw string) ([]string, error) {
	var out []string
	qerr := &store.QueryError{}
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := res.Relation(name); !ok {
			qerr.Fields = map[string][]string{"include": {"unknown relation " + name}}
			return nil, qerr
		}
		out = append(out, name)
	}
	return out, nil
}
