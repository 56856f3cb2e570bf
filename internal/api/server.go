package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/auth"
	"github.com/remoshock/remoshock/internal/config"
	"github.com/remoshock/remoshock/internal/logging"
)

// Version is reported by the health endpoint. Binaries set it at startup.
var Version = "dev"

// Server represents the HTTP API server.
type Server struct {
	mu         sync.Mutex
	httpServer *http.Server
	stopped    bool

	dispatcher     DispatcherPort
	randomizer     RandomizerPort
	telemetryHub   TelemetryPort
	authMiddleware *auth.Middleware
	timing         *config.TimingConfig
	startTime      time.Time
	logger         zerolog.Logger
}

// NewServer creates a new API server. randomizer and telemetryHub may be nil,
// which disables their endpoints.
func NewServer(dispatcher DispatcherPort, randomizer RandomizerPort, telemetryHub TelemetryPort, authMiddleware *auth.Middleware, timing *config.TimingConfig, logger zerolog.Logger) *Server {
	if timing == nil {
		timing = config.LoadTimingBaseline()
	}
	return &Server{
		dispatcher:     dispatcher,
		randomizer:     randomizer,
		telemetryHub:   telemetryHub,
		authMiddleware: authMiddleware,
		timing:         timing,
		startTime:      time.Now(),
		logger:         logger.With().Str("component", "api").Logger(),
	}
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return logging.RequestLogger(s.logger, mux)
}

// Serve serves HTTP on l until Stop is called.
func (s *Server) Serve(l net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.timing.HTTPReadTimeout,
		WriteTimeout: s.timing.HTTPWriteTimeout,
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return l.Close()
	}
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info().Str("addr", l.Addr().String()).Msg("HTTP server listening")
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}
	return nil
}

// Start listens on addr and serves until Stop is called.
func (s *Server) Start(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return s.Serve(l)
}

// Stop gracefully stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.stopped = true
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.timing.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
