// AngelaMos | 2026
// server.go

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/buildmc/storefront/internal/config"
)

const readHeaderTimeout = 10 * time.Second

// ShutdownNotifier is told when the server starts draining so readiness
// probes fail before listeners close.
type ShutdownNotifier interface {
	SetShutdown(shutdown bool)
}

type Config struct {
	ServerConfig  config.ServerConfig
	HealthHandler ShutdownNotifier
	Logger        *slog.Logger
	// DrainDelay is how long readiness reports shutting_down before the
	// listener closes.
	DrainDelay time.Duration
}

type Server struct {
	http   *http.Server
	router *chi.Mux
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	router := chi.NewRouter()

	return &Server{
		router: router,
		cfg:    cfg,
		logger: logger,
		http: &http.Server{
			Addr:              cfg.ServerConfig.Address(),
			Handler:           router,
			ReadTimeout:       cfg.ServerConfig.ReadTimeout,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      cfg.ServerConfig.WriteTimeout,
			IdleTimeout:       cfg.ServerConfig.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
	}
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run serves until ctx is cancelled, then drains. It returns nil after a
// clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.http.Addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("http server listening", "addr", ln.Addr().String())

	served := make(chan error, 1)
	go func() {
		err := s.http.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		served <- err
	}()

	select {
	case err := <-served:
		return err
	case <-ctx.Done():
	}

	if err := s.drain(); err != nil {
		return err
	}
	return <-served
}

// drain flips readiness, waits DrainDelay for load balancers to notice,
// then stops accepting connections and waits for in-flight requests.
// Connections still open after ShutdownTimeout, typically event streams,
// are closed.
func (s *Server) drain() error {
	if s.cfg.HealthHandler != nil {
		s.cfg.HealthHandler.SetShutdown(true)
	}

	s.logger.Info("draining connections", "delay", s.cfg.DrainDelay)
	time.Sleep(s.cfg.DrainDelay)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ServerConfig.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		s.logger.Warn("closing lingering connections", "timeout", s.cfg.ServerConfig.ShutdownTimeout)
		if err := s.http.Close(); err != nil {
			return fmt.Errorf("close http server: %w", err)
		}
	}
	s.logger.Info("http server stopped")
	return nil
}
