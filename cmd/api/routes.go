// AngelaMos | 2026
// routes.go

package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/buildmc/storefront/internal/config"
	"github.com/buildmc/storefront/internal/health"
	"github.com/buildmc/storefront/internal/middleware"
)

type guards struct {
	signedIn func(http.Handler) http.Handler
	optional func(http.Handler) http.Handler
	admin    func(http.Handler) http.Handler
}

// Per caller and endpoint, on top of the global window.
var (
	authBudget     = middleware.PerMinute(30, 10)
	proxyBudget    = middleware.PerMinute(60, 30)
	checkoutBudget = middleware.PerMinute(10, 5)
)

func mount(
	router chi.Router,
	cfg *config.Config,
	rdb *redis.Client,
	readiness *health.Handler,
	h handlers,
	g guards,
	logger *slog.Logger,
) {
	router.Use(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.NewRateLimiter(rdb, middleware.RateLimitConfig{
			Limit:    middleware.Window(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst),
			FailOpen: true,
		}).Handler,
		middleware.SecurityHeaders(cfg.IsProduction()),
		middleware.CORS(cfg.CORS),
	)

	readiness.RegisterRoutes(router)
	router.Get("/.well-known/jwks.json", h.jwks)
	if h.uploads != nil {
		router.Handle("/uploads/*", h.uploads)
	}

	router.Route("/functions", func(r chi.Router) {
		r.Use(middleware.Strict(rdb, proxyBudget))
		h.status.RegisterFunctionRoutes(r)
	})

	router.Route("/v1", func(r chi.Router) {
		r.With(middleware.Strict(rdb, authBudget)).Group(func(r chi.Router) {
			h.auth.RegisterRoutes(r, g.signedIn, g.optional)
		})

		h.catalog.RegisterRoutes(r)
		h.settings.RegisterRoutes(r)
		h.status.RegisterRoutes(r)

		r.With(g.signedIn).Group(func(r chi.Router) {
			h.checkout.RegisterRoutes(r, middleware.Strict(rdb, checkoutBudget))
			h.orders.RegisterRoutes(r)
			h.users.RegisterRoutes(r)
		})

		r.With(g.signedIn, g.admin).Route("/admin", func(r chi.Router) {
			h.admin.RegisterRoutes(r)
			h.catalog.RegisterAdminRoutes(r)
			h.orders.RegisterAdminRoutes(r)
			h.roles.RegisterRoutes(r)
			h.settings.RegisterAdminRoutes(r)
		})
	})
}
