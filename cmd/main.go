package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"StockDesk/internal/config"
	"StockDesk/internal/db"
	"StockDesk/internal/handler"
	"StockDesk/internal/logger"
	"StockDesk/internal/migrations"
	"StockDesk/internal/registry"
	"StockDesk/internal/router"
)

func main() {
	debugFlag := flag.Bool("d", false, "enable debug logging")
	flag.Parse()

	cfg := config.LoadConfig()
	if err := logger.Init("."); err != nil {
		fmt.Fprintf(os.Stderr, "log init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger.SetDebug(*debugFlag)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Migrate {
		if err := migrations.Up(cfg.PostgresDSN); err != nil {
			logger.Error("migrations_failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := db.InitPostgres(initCtx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		logger.Error("postgres_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("postgres_connected", nil)

	checks := map[string]router.HealthCheck{"postgres": db.PingPostgres}
	if cfg.RedisAddr != "" {
		db.InitRedis(cfg.RedisAddr)
		if err := db.PingRedis(ctx); err != nil {
			logger.Warn("redis_unreachable", map[string]any{"addr": cfg.RedisAddr, "error": err.Error()})
		}
		checks["redis"] = db.PingRedis
	}

	catalog, err := registry.Load(cfg.ResourcesDir)
	if err != nil {
		logger.Error("registry_init_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("resources_initialized", map[string]any{"resources": catalog.Names()})

	h := handler.New(catalog, db.Pool, "q")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(h, cfg.CORS, checks),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server_shutdown_failed", map[string]any{"error": err.Error()})
		}
	}()

	logger.Info("server_start", map[string]any{"port": cfg.Port})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server_error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	logger.Info("server_stopped", nil)
}
