// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/buildmc/storefront/internal/core"
)

type HandlerConfig struct {
	Catalog    CatalogCounter
	Orders     OrderSummarizer
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	DBPing     func(ctx context.Context) error
	RedisPing  func(ctx context.Context) error
}

type Handler struct {
	cfg     HandlerConfig
	started time.Time
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg, started: time.Now()}
}

// RegisterRoutes expects r to already be behind the admin check.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Route("/stats", func(r chi.Router) {
		r.Get("/", h.System)
		r.Get("/db", serve(h.databasePool))
		r.Get("/redis", serve(h.redisPool))
		r.Get("/runtime", serve(h.process))
	})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := BuildDashboard(r.Context(), h.cfg.Catalog, h.cfg.Orders)
	if err != nil {
		core.CollaboratorError(w, err)
		return
	}
	core.OK(w, d)
}

func (h *Handler) System(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	core.OK(w, SystemStats{
		Database: Backend{Reachable: reachable(ctx, h.cfg.DBPing), Pool: h.databasePool()},
		Redis:    Backend{Reachable: reachable(ctx, h.cfg.RedisPing), Pool: h.redisPool()},
		Process:  h.process(),
	})
}

func serve[T any](read func() T) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		core.OK(w, read())
	}
}

func reachable(ctx context.Context, ping func(context.Context) error) bool {
	return ping == nil || ping(ctx) == nil
}

func (h *Handler) process() Process {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Process{
		GoVersion:  runtime.Version(),
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		CPUs:       runtime.NumCPU(),
		HeapBytes:  mem.HeapAlloc,
		GCCycles:   mem.NumGC,
	}
}

func (h *Handler) databasePool() *Pool {
	if h.cfg.DBStats == nil {
		return nil
	}
	s := h.cfg.DBStats()
	return &Pool{
		Open:     s.OpenConnections,
		Idle:     s.Idle,
		InUse:    s.InUse,
		Limit:    s.MaxOpenConnections,
		Waits:    s.WaitCount,
		WaitTime: s.WaitDuration.String(),
	}
}

func (h *Handler) redisPool() *Pool {
	if h.cfg.RedisStats == nil {
		return nil
	}
	s := h.cfg.RedisStats()
	return &Pool{
		Open:   int(s.TotalConns),
		Idle:   int(s.IdleConns),
		InUse:  int(s.TotalConns) - int(s.IdleConns),
		Waits:  int64(s.Timeouts),
		Hits:   s.Hits,
		Misses: s.Misses,
	}
}
