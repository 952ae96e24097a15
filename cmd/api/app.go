// AngelaMos | 2026
// app.go

package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/buildmc/storefront/internal/admin"
	"github.com/buildmc/storefront/internal/auth"
	"github.com/buildmc/storefront/internal/catalog"
	"github.com/buildmc/storefront/internal/checkout"
	"github.com/buildmc/storefront/internal/config"
	"github.com/buildmc/storefront/internal/health"
	"github.com/buildmc/storefront/internal/middleware"
	"github.com/buildmc/storefront/internal/order"
	"github.com/buildmc/storefront/internal/realtime"
	"github.com/buildmc/storefront/internal/role"
	"github.com/buildmc/storefront/internal/server"
	"github.com/buildmc/storefront/internal/settings"
	"github.com/buildmc/storefront/internal/status"
	"github.com/buildmc/storefront/internal/storage"
	"github.com/buildmc/storefront/internal/user"
)

// app is the wired storefront: every service shares one database pool,
// one redis client and one event bus.
type app struct {
	server  *server.Server
	monitor *status.Monitor
}

type handlers struct {
	jwks     http.HandlerFunc
	uploads  http.Handler
	auth     *auth.Handler
	users    *user.Handler
	roles    *role.Handler
	catalog  *catalog.Handler
	checkout *checkout.Handler
	orders   *order.Handler
	settings *settings.Handler
	status   *status.Handler
	admin    *admin.Handler
}

//nolint:funlen // one constructor per service
func newApp(cfg *config.Config, in *infra, logger *slog.Logger) (*app, error) {
	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return nil, err
	}
	logger.Info("signing key loaded", "alg", "ES256", "kid", jwtManager.GetKeyID())

	bucket, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, err
	}
	logger.Info("object storage ready", "driver", cfg.Storage.Driver)

	db, rdb := in.db.DB, in.redis.Client
	bus := realtime.NewBus(rdb)

	users := user.NewService(user.NewRepository(db), bus, logger)
	roles := role.NewService(role.NewRepository(db), bus, logger)
	sessions := auth.NewService(auth.NewRepository(db), jwtManager, users, bus, logger)
	products := catalog.NewService(catalog.NewRepository(db))
	orders := order.NewService(
		order.NewRepository(db),
		order.NewDeleteGuard(rdb, order.DefaultConfirmTTL),
		logger,
	)
	site := settings.NewService(
		settings.NewRepository(db), bucket, bus, cfg.Storage, cfg.Site, logger,
	)
	workflow := checkout.NewWorkflow(
		checkout.NewRepository(db),
		cfg.Checkout.PaymentMethods,
		cfg.Checkout.InitialStatus,
		logger,
	)

	minecraft, discord, monitor := newStatus(cfg.Status, site, in, logger)

	h := handlers{
		jwks: jwtManager.GetJWKSHandler(),
		auth: auth.NewHandler(auth.HandlerConfig{
			Service:   sessions,
			OAuth:     auth.NewOAuthManager(cfg.OAuth),
			Roles:     roles,
			Bus:       bus,
			PublicURL: cfg.App.PublicURL,
			Logger:    logger,
		}),
		users:    user.NewHandler(users),
		roles:    role.NewHandler(roles),
		catalog:  catalog.NewHandler(products),
		checkout: checkout.NewHandler(workflow, products, users, logger),
		orders:   order.NewHandler(orders, order.DefaultConfirmTTL),
		settings: settings.NewHandler(site, bus, cfg.Storage.LogoMaxBytes, logger),
		status:   status.NewHandler(minecraft, discord, monitor, logger),
		admin: admin.NewHandler(admin.HandlerConfig{
			Catalog:    products,
			Orders:     orders,
			DBStats:    in.db.Stats,
			RedisStats: in.redis.PoolStats,
			DBPing:     in.db.Ping,
			RedisPing:  in.redis.Ping,
		}),
	}
	if local, ok := bucket.(*storage.Local); ok {
		h.uploads = http.StripPrefix("/uploads/", local.Handler())
	}

	probes := []health.Dependency{
		{Name: "database", Checker: in.db},
		{Name: "redis", Checker: in.redis},
	}
	if cfg.Status.MonitorEnabled {
		probes = append(probes, health.Dependency{
			Name: "status-monitor", Checker: monitor, Optional: true,
		})
	}
	readiness := health.NewHandler(probes...)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: readiness,
		Logger:        logger,
		DrainDelay:    drainDelay,
	})
	mount(srv.Router(), cfg, rdb, readiness, h, guards{
		signedIn: middleware.Authenticator(sessions),
		optional: middleware.OptionalAuth(sessions),
		admin:    middleware.RequireAdmin(roles),
	}, logger)

	return &app{server: srv, monitor: monitor}, nil
}

func newStatus(
	cfg config.StatusConfig,
	site *settings.Service,
	in *infra,
	logger *slog.Logger,
) (*status.MinecraftClient, *status.DiscordClient, *status.Monitor) {
	client := &http.Client{Timeout: cfg.AttemptTimeout + time.Second}
	minecraft := status.NewMinecraftClient(client, status.MinecraftOptions{
		BaseURL:        cfg.MinecraftURL,
		Attempts:       cfg.Attempts,
		AttemptTimeout: cfg.AttemptTimeout,
		BackoffStep:    cfg.BackoffStep,
	}, logger)
	discord := status.NewDiscordClient(client, cfg.DiscordURL, logger)
	monitor := status.NewMonitor(minecraft, discord, site, in.redis.Client, status.MonitorOptions{
		Defaults: status.Targets{
			ServerIP:        cfg.DefaultServerIP,
			DiscordServerID: cfg.DiscordServerID,
		},
		Interval:   cfg.PollInterval,
		MaxBackoff: cfg.MaxPollBackoff,
		CacheTTL:   cfg.CacheTTL,
	}, logger)
	return minecraft, discord, monitor
}
