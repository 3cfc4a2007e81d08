// Package router dispatches requests by exact path to exports of the external module.
//
// Each matching request awaits module readiness, calls one export, and shapes the output into a response.
// Any other path gets a 404 with the body "Not found". Method and query string are ignored.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/robbyt/go-edgeworker/internal/helpers"
	"github.com/robbyt/go-edgeworker/internal/metrics"
	"github.com/robbyt/go-edgeworker/module"
)

// Router is an http.Handler serving a route table from a module.
type Router struct {
	module  module.Module
	routes  Table
	index   map[string]Route
	mux     *chi.Mux
	metrics *metrics.Metrics
	timeout time.Duration

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a Router for mod. The default table is used unless WithRoutes is given.
func New(mod module.Module, opts ...Option) (*Router, error) {
	if mod == nil {
		return nil, ErrModuleNil
	}

	r := &Router{
		module: mod,
		routes: DefaultTable(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("error applying router option: %w", err)
		}
	}

	if err := r.routes.Validate(); err != nil {
		return nil, err
	}

	r.logHandler, r.logger = helpers.SetupLogger(r.logHandler, "router", "Router")

	r.index = make(map[string]Route, len(r.routes))
	for _, route := range r.routes {
		r.index[route.Path] = route
	}
	r.mux = r.newMux()

	return r, nil
}

func (r *Router) String() string {
	return fmt.Sprintf("router.Router{Routes: %d}", len(r.routes))
}

// Routes returns a copy of the served route table.
func (r *Router) Routes() Table {
	return append(Table(nil), r.routes...)
}

func (r *Router) newMux() *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(exactPath)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)

	for _, route := range r.routes {
		mux.Handle(route.Path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.dispatch(req.Context(), route).Write(w)
		}))
	}
	mux.NotFound(func(w http.ResponseWriter, req *http.Request) {
		r.observe(metrics.RouteNotFound, http.StatusNotFound)
		notFound().Write(w)
	})

	return mux
}

// exactPath makes chi match on the escaped path for every method. Percent-escapes are compared as sent,
// so "/sl%6fts" does not match "/slots".
func exactPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			rctx.RoutePath = req.URL.EscapedPath()
			rctx.RouteMethod = http.MethodGet
		}
		next.ServeHTTP(w, req)
	})
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handle dispatches path without an http.Request. It never returns an error: failures become a 500 response.
func (r *Router) Handle(ctx context.Context, path string) Response {
	route, ok := r.index[path]
	if !ok {
		r.observe(metrics.RouteNotFound, http.StatusNotFound)
		return notFound()
	}
	return r.dispatch(ctx, route)
}

// dispatch runs ready, call, and shape for one route, in that order.
func (r *Router) dispatch(ctx context.Context, route Route) (resp Response) {
	logger := r.logger.With("path", route.Path, "export", route.Export)
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("requestID", reqID)
	}

	stage := metrics.StageReady
	defer func() {
		if rvr := recover(); rvr != nil {
			resp = r.fail(ctx, logger, route, stage, fmt.Errorf("panic: %v", rvr))
		}
	}()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	readyStart := time.Now()
	inst, err := r.module.Ready(ctx)
	if r.metrics != nil {
		r.metrics.ObserveReady(time.Since(readyStart))
	}
	if err != nil {
		return r.fail(ctx, logger, route, metrics.StageReady, err)
	}
	defer func() {
		if err := inst.Close(ctx); err != nil {
			logger.WarnContext(ctx, "failed to close module instance", "error", err)
		}
	}()

	stage = metrics.StageCall
	callStart := time.Now()
	out, err := inst.Call(ctx, route.Export)
	if r.metrics != nil {
		r.metrics.ObserveCall(route.Export, time.Since(callStart))
	}
	if err != nil {
		return r.fail(ctx, logger, route, metrics.StageCall, err)
	}

	stage = metrics.StageShape
	body, err := route.ShapeBody(out)
	if err != nil {
		return r.fail(ctx, logger, route, metrics.StageShape, err)
	}

	r.observe(route.Path, http.StatusOK)
	return Response{
		Status:      http.StatusOK,
		ContentType: route.ContentType,
		Body:        body,
	}
}

func (r *Router) fail(ctx context.Context, logger *slog.Logger, route Route, stage string, err error) Response {
	logger.ErrorContext(ctx, "request failed", "stage", stage, "error", err)
	if r.metrics != nil {
		r.metrics.IncrementModuleErrors(stage)
	}
	r.observe(route.Path, http.StatusInternalServerError)
	return internalError()
}

func (r *Router) observe(route string, status int) {
	if r.metrics != nil {
		r.metrics.ObserveRequest(route, status)
	}
}
