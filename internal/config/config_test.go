package config

import (
	"testing"
	"time"
)

func TestLoadConfigReadsEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("API_BASE_URL", "http://api.local/api/")
	t.Setenv("API_TIMEOUT_MS", "2500")
	t.Setenv("TABLE_DEBOUNCE_MS", "250")
	t.Setenv("TABLE_PAGE_SIZE", "25")
	t.Setenv("CACHE_BACKEND", "REDIS")
	t.Setenv("CACHE_TTL_SEC", "60")
	t.Setenv("MIGRATIONS", "false")

	cfg := LoadConfig()

	if cfg.Port != "9090" {
		t.Fatalf("port: got %q", cfg.Port)
	}
	if cfg.API.BaseURL != "http://api.local/api" {
		t.Fatalf("base url should lose trailing slash, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 2500*time.Millisecond {
		t.Fatalf("timeout: got %s", cfg.API.Timeout)
	}
	if cfg.Table.Debounce != 250*time.Millisecond || cfg.Table.DefaultPageSize != 25 {
		t.Fatalf("table config: %+v", cfg.Table)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.TTL != time.Minute {
		t.Fatalf("cache config: %+v", cfg.Cache)
	}
	if cfg.Migrate {
		t.Fatalf("MIGRATIONS=false not honoured")
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("TABLE_PAGE_SIZE", "ten")
	t.Setenv("CACHE_MAX_BYTES", "-5")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "maybe")

	cfg := LoadConfig()

	if cfg.Table.DefaultPageSize != 10 {
		t.Fatalf("expected default page size, got %d", cfg.Table.DefaultPageSize)
	}
	if cfg.Cache.MaxBytes != 0 {
		t.Fatalf("expected default max bytes, got %d", cfg.Cache.MaxBytes)
	}
	if cfg.CORS.AllowCredentials {
		t.Fatalf("invalid bool should fall back to false")
	}
}
