// Package handler serves the generic REST surface over the resource catalog:
// list, show, create and update for every resource, with the pagination and error
// envelopes the client side expects.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"StockDesk/internal/logger"
	"StockDesk/internal/registry"
	"StockDesk/internal/resource"
	"StockDesk/internal/store"
)

// Querier runs read queries; *pgxpool.Pool and pgx.Tx both satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// DB is what the handlers need from the pool.
type DB interface {
	Querier
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Handler struct {
	catalog   *registry.Catalog
	db        DB
	searchKey string
	newID     func() string
}

func New(catalog *registry.Catalog, db DB, searchKey string) *Handler {
	if searchKey == "" {
		searchKey = "q"
	}
	return &Handler{catalog: catalog, db: db, searchKey: searchKey, newID: newUUID}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write_response_failed", map[string]any{"error": err.Error()})
	}
}

func writeError(w http.ResponseWriter, status int, message string, fields map[string][]string) {
	writeJSON(w, status, resource.ErrorEnvelope{Message: message, Errors: fields})
}

// writeFailure maps an error from parsing or the database to a response.
func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var qerr *store.QueryError
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, errBadBody):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &qerr):
		status := http.StatusBadRequest
		if r.Method != http.MethodGet {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, "The given data was invalid.", qerr.Fields)
	case errors.Is(err, store.ErrBadQuery):
		writeError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation:
		writeError(w, http.StatusUnprocessableEntity, "The given data was invalid.", map[string][]string{
			constraintField(pgErr): {"has already been taken"},
		})
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
		writeError(w, http.StatusUnprocessableEntity, "The given data was invalid.", map[string][]string{
			constraintField(pgErr): {"refers to a missing record"},
		})
	case errors.Is(err, registry.ErrUnknownResource), errors.Is(err, pgx.ErrNoRows):
		writeError(w, http.StatusNotFound, "Not found.", nil)
	case errors.Is(err, context.Canceled):
		logger.Debug("request_cancelled", map[string]any{"path": r.URL.Path})
	default:
		logger.Error("request_failed", map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
			"error":  err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "Server error.", nil)
	}
}

// constraintField guesses the offending column from a constraint named
// <table>_<column>_(key|fkey).
func constraintField(e *pgconn.PgError) string {
	if e.ColumnName != "" {
		return e.ColumnName
	}
	name := strings.TrimPrefix(e.ConstraintName, e.TableName+"_")
	for _, suffix := range []string{"_fkey", "_key"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

func (h *Handler) resource(name string) (*registry.Resource, error) {
	return h.catalog.Get(name)
}

// query runs sqlStr and scans every row.
func query(ctx context.Context, q Querier, sqlStr string, args []any) ([]map[string]any, error) {
	rows, err := q.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	return store.ScanRows(rows)
}

// loadIncludes resolves each relation with one IN query and attaches the results.
func loadIncludes(ctx context.Context, q Querier, res *registry.Resource, rows []map[string]any, include []string) error {
	for _, name := range include {
		rel, ok := res.Relation(name)
		if !ok {
			continue
		}
		keys := store.IncludeKeys(rows, rel)
		var related []map[string]any
		if len(keys) > 0 {
			sqlStr, args, err := store.BuildIncludeQuery(rel, keys).ToSql()
			if err != nil {
				return err
			}
			related, err = query(ctx, q, sqlStr, args)
			if err != nil {
				return err
			}
		}
		store.Attach(rows, name, rel, related)
	}
	return nil
}
