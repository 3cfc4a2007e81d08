package router

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robbyt/go-edgeworker/internal/metrics"
)

// Option configures a Router
type Option func(*Router) error

// WithLogHandler sets the log handler for the router.
func WithLogHandler(handler slog.Handler) Option {
	return func(r *Router) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		r.logHandler = handler
		return nil
	}
}

// WithRoutes replaces the default route table.
func WithRoutes(routes Table) Option {
	return func(r *Router) error {
		if len(routes) == 0 {
			return fmt.Errorf("route table cannot be empty")
		}
		r.routes = append(Table(nil), routes...)
		return nil
	}
}

// WithMetrics records request and module metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Router) error {
		if m == nil {
			return fmt.Errorf("metrics cannot be nil")
		}
		r.metrics = m
		return nil
	}
}

// WithTimeout bounds readiness plus the export call for each request. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Router) error {
		if d < 0 {
			return fmt.Errorf("timeout cannot be negative")
		}
		r.timeout = d
		return nil
	}
}
