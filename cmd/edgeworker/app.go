package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robbyt/go-edgeworker"
	"github.com/robbyt/go-edgeworker/engines/extism"
	extismCompiler "github.com/robbyt/go-edgeworker/engines/extism/compiler"
	"github.com/robbyt/go-edgeworker/engines/risor"
	risorCompiler "github.com/robbyt/go-edgeworker/engines/risor/compiler"
	"github.com/robbyt/go-edgeworker/engines/starlark"
	starlarkCompiler "github.com/robbyt/go-edgeworker/engines/starlark/compiler"
	"github.com/robbyt/go-edgeworker/internal/adapter"
	"github.com/robbyt/go-edgeworker/internal/adapter/awslambda"
	"github.com/robbyt/go-edgeworker/internal/adapter/httpserver"
	"github.com/robbyt/go-edgeworker/internal/config"
	"github.com/robbyt/go-edgeworker/internal/helpers"
	"github.com/robbyt/go-edgeworker/internal/metrics"
	"github.com/robbyt/go-edgeworker/module/loader"
	"github.com/robbyt/go-edgeworker/router"
)

// app is the wired worker: config, module, router, and metrics registry.
type app struct {
	cfg        *config.Config
	module     edgeworker.Module
	router     *router.Router
	registry   *prometheus.Registry
	logHandler slog.Handler
	logger     *slog.Logger
}

func newApp(configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logHandler, err := helpers.NewLogHandler(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	logHandler, logger := helpers.SetupLogger(logHandler, "edgeworker", "")

	ldr, err := newLoader(cfg.Module, logger)
	if err != nil {
		return nil, err
	}

	routes := cfg.Routes
	if len(routes) == 0 {
		routes = router.DefaultTable()
	}

	mod, err := newModule(cfg.Module, routes.Exports(), ldr, logHandler)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	routerOpts := []router.Option{
		router.WithLogHandler(logHandler),
		router.WithMetrics(metrics.NewMetrics(registry)),
		router.WithTimeout(cfg.Module.Timeout),
		router.WithRoutes(routes),
	}
	r, err := edgeworker.NewHandler(mod, routerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	return &app{
		cfg:        cfg,
		module:     mod,
		router:     r,
		registry:   registry,
		logHandler: logHandler,
		logger:     logger,
	}, nil
}

// newLoader resolves the module source. An empty extism source falls back to the example guest.
func newLoader(cfg config.Module, logger *slog.Logger) (loader.Loader, error) {
	source := cfg.Source
	if source == "" {
		if cfg.Engine != edgeworker.EngineExtism {
			return nil, fmt.Errorf("module.source is required for the %s engine", cfg.Engine)
		}
		path, err := helpers.FindWasmFile(logger)
		if err != nil {
			return nil, err
		}
		source = path
	}

	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") && len(cfg.Headers) > 0 {
		opts := loader.DefaultHTTPOptions()
		opts.AuthType = loader.HeaderAuth
		for k, v := range cfg.Headers {
			opts.Headers[k] = v
		}
		return loader.NewFromHTTPWithOptions(source, opts)
	}

	return loader.InferLoader(source)
}

// newModule creates the module backend. exports are the names the route table calls; compilation
// fails unless the module defines all of them.
func newModule(cfg config.Module, exports []string, ldr loader.Loader, logHandler slog.Handler) (edgeworker.Module, error) {
	switch cfg.Engine {
	case edgeworker.EngineExtism:
		compilerOpts := []extismCompiler.FunctionalOption{
			extismCompiler.WithExports(exports...),
			extismCompiler.WithWASIEnabled(cfg.WASI),
		}
		if cfg.CacheDir != "" {
			compilerOpts = append(compilerOpts, extismCompiler.WithCompilationCacheDir(cfg.CacheDir))
		}
		return extism.New(ldr,
			extism.WithLogHandler(logHandler),
			extism.WithCompilerOptions(compilerOpts...),
		)
	case edgeworker.EngineStarlark:
		return starlark.New(ldr,
			starlark.WithLogHandler(logHandler),
			starlark.WithCompilerOptions(starlarkCompiler.WithExports(exports...)),
		)
	case edgeworker.EngineRisor:
		return risor.New(ldr,
			risor.WithLogHandler(logHandler),
			risor.WithCompilerOptions(risorCompiler.WithExports(exports...)),
		)
	default:
		return nil, fmt.Errorf("unknown module engine %q", cfg.Engine)
	}
}

func (a *app) newAdapter(mode adapter.Mode) (adapter.Adapter, error) {
	switch mode {
	case adapter.ModeLambda:
		return awslambda.NewAdapter(a.router, a.logHandler)
	case adapter.ModeHTTPServer:
		opts := []httpserver.Option{
			httpserver.WithLogHandler(a.logHandler),
			httpserver.WithAdminAddr(a.cfg.AdminListen),
			httpserver.WithGatherer(a.registry),
			httpserver.WithReadyCheck(a.module.Warm),
		}
		if a.cfg.ShutdownTimeout > 0 {
			opts = append(opts, httpserver.WithShutdownTimeout(a.cfg.ShutdownTimeout))
		}
		return httpserver.New(a.router, a.cfg.Listen, opts...)
	default:
		return nil, fmt.Errorf("unsupported runtime mode %s", mode)
	}
}

// run compiles the module, then serves until ctx is cancelled.
func (a *app) run(ctx context.Context) error {
	mode := adapter.DetectMode()
	a.logger.InfoContext(ctx, "starting edgeworker", "mode", mode.String(), "engine", a.cfg.Module.Engine)

	// a failed warm-up is not fatal: every request retries compilation
	if err := a.module.Warm(ctx); err != nil {
		a.logger.WarnContext(ctx, "module warm-up failed", "error", err)
	}

	ad, err := a.newAdapter(mode)
	if err != nil {
		return err
	}

	runErr := ad.Start(ctx)
	closeErr := a.module.Close(context.WithoutCancel(ctx))
	return errors.Join(runErr, closeErr)
}
