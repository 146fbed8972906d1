// Package server runs the relay's HTTP endpoints.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Config configures the HTTP server.
type Config struct {
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// TLS, when set, serves HTTPS. Certificates come from
	// TLS.GetCertificate.
	TLS *tls.Config
}

// Server serves a handler until its context is cancelled.
type Server struct {
	cfg        Config
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// New returns a server for handler. The handler is wrapped with request
// id, logging and panic recovery middleware.
func New(cfg Config, handler http.Handler) *Server {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	return &Server{
		cfg:     cfg,
		handler: Chain(handler, RecoveryMiddleware, LoggingMiddleware, RequestIDMiddleware),
		logger:  slog.Default().With("component", "server"),
		ready:   make(chan struct{}),
	}
}

// Run listens and serves until ctx is cancelled, then shuts down
// gracefully, waiting up to ShutdownTimeout for in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	if s.cfg.TLS != nil {
		ln = tls.NewListener(ln, s.cfg.TLS)
	}

	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening",
			"address", ln.Addr().String(),
			"tls", s.cfg.TLS != nil,
		)
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server", "timeout", s.cfg.ShutdownTimeout)
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Addr returns the bound address once the server is listening. It blocks
// until Run has opened the listener or ctx is done.
func (s *Server) Addr(ctx context.Context) (string, error) {
	select {
	case <-s.ready:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener.Addr().String(), nil
}
