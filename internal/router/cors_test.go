package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serveCORS(allowOrigin string, credentials bool, method, origin string) *httptest.ResponseRecorder {
	h := withCORS(allowOrigin, credentials)(okHandler)
	req := httptest.NewRequest(method, "/api/warehouses", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestWithCORS_AllowsSingleOrigin(t *testing.T) {
	w := serveCORS("http://localhost:3000", false, http.MethodGet, "http://localhost:3000")

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("unexpected allow origin: %q", got)
	}
	if got := w.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("unexpected vary: %q", got)
	}
}

func TestWithCORS_AllowsFromCSVList(t *testing.T) {
	w := serveCORS("http://192.168.0.251:3000,http://cbs:3000", false, http.MethodGet, "http://cbs:3000")

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://cbs:3000" {
		t.Fatalf("unexpected allow origin: %q", got)
	}
}

func TestWithCORS_BlocksUnknownOriginFromCSVList(t *testing.T) {
	w := serveCORS("http://192.168.0.251:3000,http://cbs:3000", false, http.MethodGet, "http://evil.example")

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin for blocked origin: %q", got)
	}
}

func TestWithCORS_WildcardWithCredentialsEchoesOrigin(t *testing.T) {
	w := serveCORS("*", true, http.MethodGet, "http://app.local")

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://app.local" {
		t.Fatalf("unexpected allow origin: %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("credentials header missing")
	}
}

func TestWithCORS_PreflightShortCircuits(t *testing.T) {
	w := serveCORS("*", false, http.MethodOptions, "http://app.local")

	if w.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PATCH, OPTIONS" {
		t.Fatalf("unexpected methods: %q", got)
	}
}
