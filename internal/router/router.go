// Package router wires the REST handlers onto a chi mux with request logging and CORS.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"StockDesk/internal/config"
	"StockDesk/internal/handler"
	"StockDesk/internal/logger"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

// New mounts the resource routes under /api and /healthz at the root.
func New(h *handler.Handler, cors config.CORSConfig, checks map[string]HealthCheck) http.Handler {
	r := chi.NewRouter()
	r.Use(withCORS(cors.AllowOrigin, cors.AllowCredentials), withLogging)

	r.Get("/healthz", healthz(checks))
	r.Route("/api", func(r chi.Router) {
		r.Get("/{resource}", h.List)
		r.Post("/{resource}", h.Create)
		r.Get("/{resource}/{id}", h.Show)
		r.Patch("/{resource}/{id}", h.Update)
		r.Post("/{resource}/{id}", h.Override)
	})
	return r
}

func healthz(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		out := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				out[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			out[name] = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(out)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		fields := map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      sw.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if id := r.Header.Get("X-Request-ID"); id != "" {
			fields["request_id"] = id
		}
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			fields["route"] = rc.RoutePattern()
		}
		switch {
		case sw.status >= 500:
			logger.Error("response", fields)
		case sw.status >= 400:
			logger.Warn("response", fields)
		default:
			logger.Info("response", fields)
		}
	})
}
