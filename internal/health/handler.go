// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

const probeTimeout = 3 * time.Second

const (
	StatusOK           = "ok"
	StatusDegraded     = "degraded"
	StatusUnavailable  = "unavailable"
	StatusNotReady     = "not_ready"
	StatusShuttingDown = "shutting_down"
)

type Checker interface {
	Ping(ctx context.Context) error
}

// Dependency is a backing service probed by /readyz. An Optional one
// failing leaves the storefront serving, so readiness reports degraded
// with a 200 instead of pulling the instance out of rotation.
type Dependency struct {
	Name     string
	Checker  Checker
	Optional bool
}

type Handler struct {
	deps     []Dependency
	ready    atomic.Bool
	shutdown atomic.Bool
}

func NewHandler(deps ...Dependency) *Handler {
	h := &Handler{deps: deps}
	h.ready.Store(true)
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if h.shutdown.Load() {
		write(w, http.StatusServiceUnavailable, Report{Status: StatusShuttingDown})
		return
	}
	write(w, http.StatusOK, Report{Status: StatusOK})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	switch {
	case h.shutdown.Load():
		write(w, http.StatusServiceUnavailable, Report{Status: StatusShuttingDown})
		return
	case !h.ready.Load():
		write(w, http.StatusServiceUnavailable, Report{Status: StatusNotReady})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	report := Report{Status: StatusOK, Checks: h.probeAll(ctx)}
	code := http.StatusOK
	for i, c := range report.Checks {
		if c.Healthy {
			continue
		}
		if !h.deps[i].Optional {
			report.Status = StatusUnavailable
			code = http.StatusServiceUnavailable
			break
		}
		report.Status = StatusDegraded
	}

	write(w, code, report)
}

func (h *Handler) probeAll(ctx context.Context) []Check {
	checks := make([]Check, len(h.deps))

	var g errgroup.Group
	for i, dep := range h.deps {
		g.Go(func() error {
			checks[i] = probe(ctx, dep)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // probes report through checks

	return checks
}

func probe(ctx context.Context, dep Dependency) Check {
	c := Check{Name: dep.Name, Optional: dep.Optional}
	if dep.Checker == nil {
		c.Message = dep.Name + " checker not configured"
		return c
	}

	start := time.Now()
	err := dep.Checker.Ping(ctx)
	c.Latency = time.Since(start).Round(time.Microsecond).String()

	if err != nil {
		slog.Warn("readiness probe failed", "dependency", dep.Name, "error", err)
		c.Message = "ping failed"
		return c
	}
	c.Healthy = true
	return c
}

func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Handler) SetShutdown(shutdown bool) {
	h.shutdown.Store(shutdown)
}

func write(w http.ResponseWriter, status int, body Report) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck
}

type Report struct {
	Status string  `json:"status"`
	Checks []Check `json:"checks,omitempty"`
}

type Check struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Optional bool   `json:"optional,omitempty"`
	Latency  string `json:"latency,omitempty"`
	Message  string `json:"message,omitempty"`
}
