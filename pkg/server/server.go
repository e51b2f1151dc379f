package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"rapidresq/resq/pkg/config"
	"rapidresq/resq/pkg/dispatch"
	"rapidresq/resq/pkg/engine"
	"rapidresq/resq/pkg/server/middleware"
	"rapidresq/resq/pkg/telemetry/health"
	"rapidresq/resq/pkg/telemetry/metrics"
	"rapidresq/resq/pkg/telemetry/tracing"
)

// Options wires the server to the rest of the process. Engine is required;
// nil telemetry components disable the matching endpoints.
type Options struct {
	Engine    *engine.Engine
	Locations dispatch.LocationResolver
	Metrics   *metrics.Collector
	Health    *health.Checker
	Tracer    *tracing.Tracer
	Version   health.VersionInfo
	Logger    *slog.Logger
}

// Server is the HTTP front end of the processor.
type Server struct {
	config     *config.Config
	engine     *engine.Engine
	locations  dispatch.LocationResolver
	metrics    *metrics.Collector
	health     *health.Checker
	tracer     *tracing.Tracer
	version    health.VersionInfo
	limiter    *middleware.RateLimiter
	logger     *slog.Logger
	httpServer *http.Server

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// New creates a server. The configuration must have been validated.
func New(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config is nil")
	}
	if opts.Engine == nil {
		return nil, errors.New("server requires an engine")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config:    cfg,
		engine:    opts.Engine,
		locations: opts.Locations,
		metrics:   opts.Metrics,
		health:    opts.Health,
		tracer:    opts.Tracer,
		version:   opts.Version,
		logger:    logger.With("component", "server"),
	}

	if cfg.Server.RateLimit.Enabled {
		var onLimit func()
		if s.metrics != nil {
			onLimit = s.metrics.RecordRateLimited
		}
		s.limiter = middleware.NewRateLimiter(&cfg.Server.RateLimit, onLimit, s.logger)
	}
	return s, nil
}

// Start listens on the configured address and serves until ctx is done or
// Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done or Shutdown is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		_ = ln.Close()
		return errors.New("server is already running")
	}
	s.isRunning = true
	s.addr = ln.Addr()
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown stops accepting connections and waits for in-flight requests up
// to the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		running, httpServer := s.isRunning, s.httpServer
		s.mu.RUnlock()

		if s.limiter != nil {
			defer s.limiter.Stop()
		}
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.Server.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning returns true while the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}
