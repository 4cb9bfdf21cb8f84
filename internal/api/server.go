package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"clipexport/internal/exporter"
	"clipexport/internal/logging"
)

// ServerConfig wires the bridge to an export service.
type ServerConfig struct {
	Bind      string
	Token     string
	Version   string
	Service   *exporter.Service
	Logger    *slog.Logger
	StartTime time.Time
}

// Server is the HTTP bridge.
type Server struct {
	bind     string
	logger   *slog.Logger
	server   *http.Server
	listener net.Listener
}

// NewServer builds a server; call Start to listen.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("api server requires an export service")
	}
	if cfg.StartTime.IsZero() {
		cfg.StartTime = time.Now()
	}
	return &Server{
		bind:   cfg.Bind,
		logger: logging.NewComponentLogger(cfg.Logger, "api"),
		server: &http.Server{
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      5 * time.Minute,
			IdleTimeout:       60 * time.Second,
		},
	}, nil
}

// Start listens on the bind address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_serve_failed", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
