// Package httpserver serves the router on a public listener and metrics and health checks on an admin listener.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robbyt/go-edgeworker/internal/adapter"
	"github.com/robbyt/go-edgeworker/internal/helpers"
	"github.com/robbyt/go-edgeworker/internal/metrics"
)

const defaultShutdownTimeout = 10 * time.Second

// Server is the HTTP server adapter.
type Server struct {
	handler         http.Handler
	addr            string
	adminAddr       string
	gatherer        prometheus.Gatherer
	readyCheck      func(ctx context.Context) error
	shutdownTimeout time.Duration

	logHandler slog.Handler
	logger     *slog.Logger
}

var _ adapter.Adapter = (*Server)(nil)

// Option configures a Server
type Option func(*Server) error

// WithAdminAddr serves /metrics, /healthz, and /readyz on addr. An empty addr disables the admin listener.
func WithAdminAddr(addr string) Option {
	return func(s *Server) error {
		s.adminAddr = addr
		return nil
	}
}

// WithGatherer sets the metrics source for /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) error {
		if g == nil {
			return fmt.Errorf("gatherer cannot be nil")
		}
		s.gatherer = g
		return nil
	}
}

// WithReadyCheck sets the check behind /readyz.
func WithReadyCheck(check func(ctx context.Context) error) Option {
	return func(s *Server) error {
		if check == nil {
			return fmt.Errorf("ready check cannot be nil")
		}
		s.readyCheck = check
		return nil
	}
}

// WithShutdownTimeout bounds the graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) error {
		if d <= 0 {
			return fmt.Errorf("shutdown timeout must be positive")
		}
		s.shutdownTimeout = d
		return nil
	}
}

// WithLogHandler sets the log handler for the server.
func WithLogHandler(handler slog.Handler) Option {
	return func(s *Server) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		s.logHandler = handler
		return nil
	}
}

// New creates a Server that serves handler on addr.
func New(handler http.Handler, addr string, opts ...Option) (*Server, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}
	s := &Server{
		handler:         handler,
		addr:            addr,
		gatherer:        prometheus.DefaultGatherer,
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("error applying server option: %w", err)
		}
	}
	s.logHandler, s.logger = helpers.SetupLogger(s.logHandler, "httpserver", "Server")
	return s, nil
}

// AdminHandler returns the admin mux.
func (s *Server) AdminHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if s.readyCheck != nil {
			if err := s.readyCheck(req.Context()); err != nil {
				s.logger.WarnContext(req.Context(), "ready check failed", "error", err)
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler(s.gatherer))
	return r
}

// Start listens on the configured addresses and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	var adminLn net.Listener
	if s.adminAddr != "" {
		adminLn, err = net.Listen("tcp", s.adminAddr)
		if err != nil {
			ln.Close()
			return fmt.Errorf("failed to listen on %s: %w", s.adminAddr, err)
		}
	}

	return s.Serve(ctx, ln, adminLn)
}

// Serve serves on the given listeners until ctx is cancelled, then shuts down gracefully.
// A nil adminLn disables the admin endpoints.
func (s *Server) Serve(ctx context.Context, ln, adminLn net.Listener) error {
	servers := []*http.Server{{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
	listeners := []net.Listener{ln}
	if adminLn != nil {
		servers = append(servers, &http.Server{
			Handler:           s.AdminHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		})
		listeners = append(listeners, adminLn)
	}

	errCh := make(chan error, len(servers))
	for i, srv := range servers {
		s.logger.InfoContext(ctx, "Server is listening", "addr", listeners[i].Addr().String())
		go func() {
			if err := srv.Serve(listeners[i]); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
				return
			}
			errCh <- nil
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
		if serveErr != nil {
			s.logger.ErrorContext(ctx, "Server failed", "error", serveErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	defer cancel()

	var errs []error
	if serveErr != nil {
		errs = append(errs, serveErr)
	}
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown failed: %w", err))
		}
	}
	s.logger.InfoContext(ctx, "Server stopped")
	return errors.Join(errs...)
}
