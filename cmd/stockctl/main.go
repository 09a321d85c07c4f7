// Command stockctl browses and edits StockDesk resources from the terminal through the
// same list and transfer code the UI uses.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"StockDesk/internal/cache"
	"StockDesk/internal/config"
	"StockDesk/internal/db"
	"StockDesk/internal/logger"
	"StockDesk/internal/registry"
	"StockDesk/internal/resource"
)

const usage = `usage: stockctl <command> [flags]

commands:
  list       list a resource page by page
  transfer   move stock between two warehouses
`

// pairs collects repeatable key=value flags in order.
type pairs [][2]string

func (p *pairs) String() string {
	parts := make([]string, len(*p))
	for i, kv := range *p {
		parts[i] = kv[0] + "=" + kv[1]
	}
	return strings.Join(parts, ",")
}

func (p *pairs) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	*p = append(*p, [2]string{k, v})
	return nil
}

type env struct {
	cfg     *config.Config
	client  *resource.Client
	catalog *registry.Catalog
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.LoadConfig()
	logger.InitWriter(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e := env{cfg: cfg, client: resource.NewClientFromConfig(cfg.API)}

	var err error
	switch os.Args[1] {
	case "list":
		err = runList(ctx, e, os.Args[2:])
	case "transfer":
		err = runTransfer(ctx, e, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		if rerr, ok := resource.AsError(err); ok {
			for field, msgs := range rerr.Fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", field, strings.Join(msgs, "; "))
			}
		}
		fmt.Fprintf(os.Stderr, "stockctl: %v\n", err)
		os.Exit(1)
	}
}

func commonFlags(fs *flag.FlagSet, debug *bool) {
	fs.BoolVar(debug, "d", false, "enable debug logging")
}

// loadCatalog reads resource definitions so bad names fail before any request.
func loadCatalog(e *env, dir string) error {
	if dir == "" {
		dir = e.cfg.ResourcesDir
	}
	catalog, err := registry.Load(dir)
	if err != nil {
		return fmt.Errorf("load resources: %w", err)
	}
	e.catalog = catalog
	return nil
}

// newCache builds the query cache from config. Redis falls back to memory when the
// server cannot be reached.
func newCache(ctx context.Context, cfg *config.Config) *cache.Cache {
	switch cfg.Cache.Backend {
	case "none", "off":
		return nil
	case "redis":
		db.InitRedis(cfg.RedisAddr)
		err := db.PingRedis(ctx)
		if err == nil {
			return cache.New(cache.NewRedisStore(db.RDB, "stockdesk:"), cfg.Cache.TTL)
		}
		logger.Warn("query_cache_redis_unavailable", map[string]any{"error": err.Error()})
	}
	return cache.New(cache.NewMemoryStore(cfg.Cache.MaxBytes), cfg.Cache.TTL)
}
