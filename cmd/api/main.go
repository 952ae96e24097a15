// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/buildmc/storefront/internal/config"
	"github.com/buildmc/storefront/internal/core"
	"github.com/buildmc/storefront/migrations"
)

const drainDelay = 5 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("storefront exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	logger.Info("starting storefront",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry := startTelemetry(ctx, cfg, logger)

	backends, err := openInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.close(logger)

	a, err := newApp(cfg, backends, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Run(gctx) })
	if cfg.Status.MonitorEnabled {
		g.Go(func() error {
			_ = a.monitor.Run(gctx) //nolint:errcheck // returns only on cancel
			return nil
		})
	}
	err = g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if ferr := telemetry.Shutdown(flushCtx); ferr != nil {
		logger.Error("telemetry flush failed", "error", ferr)
	}

	logger.Info("storefront stopped")
	return err
}

// startTelemetry returns nil, which Shutdown accepts, when tracing is off
// or the exporter cannot be built.
func startTelemetry(ctx context.Context, cfg *config.Config, logger *slog.Logger) *core.Telemetry {
	if !cfg.Otel.Enabled {
		return nil
	}
	t, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		return nil
	}
	logger.Info("tracing to otlp", "endpoint", cfg.Otel.Endpoint)
	return t
}

type infra struct {
	db    *core.Database
	redis *core.Redis
}

func openInfra(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*infra, error) {
	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("postgres connected", "max_open_conns", cfg.Database.MaxOpenConns)

	if cfg.Database.AutoMigrate {
		applied, err := db.Migrate(ctx, migrations.FS)
		if err != nil {
			_ = db.Close() //nolint:errcheck
			return nil, err
		}
		logger.Info("migrations applied", "versions", applied)
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close() //nolint:errcheck
		return nil, err
	}
	logger.Info("redis connected", "pool_size", cfg.Redis.PoolSize)

	return &infra{db: db, redis: redis}, nil
}

func (i *infra) close(logger *slog.Logger) {
	if err := i.redis.Close(); err != nil {
		logger.Error("redis close failed", "error", err)
	}
	if err := i.db.Close(); err != nil {
		logger.Error("postgres close failed", "error", err)
	}
}
