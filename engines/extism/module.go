// Package extism runs the external module as an Extism WASM plugin.
//
// The module is compiled once, on the first Ready call, and a fresh plugin instance is created for every
// request. Extism plugin instances keep per-call state and are not safe for concurrent use, so an instance
// never outlives the request that created it.
package extism

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	extismSDK "github.com/extism/go-sdk"
	"github.com/google/uuid"
	"github.com/robbyt/go-edgeworker/engines/extism/adapters"
	"github.com/robbyt/go-edgeworker/engines/extism/compiler"
	"github.com/robbyt/go-edgeworker/internal/helpers"
	"github.com/robbyt/go-edgeworker/module"
	"github.com/robbyt/go-edgeworker/module/loader"
)

// Module implements module.Module for a WASM binary read from a loader.
type Module struct {
	ldr            loader.Loader
	compilerOpts   []compiler.FunctionalOption
	instanceConfig func() extismSDK.PluginInstanceConfig

	compiler *compiler.Compiler
	compile  func(ctx context.Context) (*compiler.Executable, error)

	mu     sync.Mutex
	exe    *compiler.Executable
	closed bool

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a Module. Nothing is read or compiled until the first Ready or Warm call.
// Unless overridden by WithCompilerOptions, the greet, prototype, and slots exports are required.
func New(ldr loader.Loader, opts ...Option) (*Module, error) {
	if ldr == nil {
		return nil, ErrLoaderNil
	}

	m := &Module{
		ldr:            ldr,
		instanceConfig: adapters.NewPluginInstanceConfig,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("error applying module option: %w", err)
		}
	}

	m.logHandler, m.logger = helpers.SetupLogger(m.logHandler, "extism", "Module")

	compilerOpts := append([]compiler.FunctionalOption{
		compiler.WithExports(module.ExportGreet, module.ExportPrototype, module.ExportSlots),
		compiler.WithLogHandler(m.logHandler),
	}, m.compilerOpts...)

	comp, err := compiler.New(compilerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Extism compiler: %w", err)
	}
	m.compiler = comp
	m.compile = m.compileFromLoader

	return m, nil
}

func (m *Module) String() string {
	return fmt.Sprintf("extism.Module{Source: %s}", m.ldr.GetSourceURL())
}

func (m *Module) compileFromLoader(ctx context.Context) (*compiler.Executable, error) {
	reader, err := m.ldr.GetReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}
	return m.compiler.Compile(ctx, reader)
}

// executable returns the compiled module, compiling it on first use.
// A failed compile is not remembered, so the next request tries again.
func (m *Module) executable(ctx context.Context) (*compiler.Executable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrModuleClosed
	}
	if m.exe != nil {
		return m.exe, nil
	}

	start := time.Now()
	exe, err := m.compile(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "module compilation failed", "source", m.ldr.GetSourceURL(), "error", err)
		return nil, err
	}
	m.logger.InfoContext(ctx, "module compiled",
		"source", m.ldr.GetSourceURL(),
		"moduleID", exe.ID(),
		"size", exe.Size(),
		"compileTime", time.Since(start),
	)
	m.exe = exe
	return exe, nil
}

// Warm compiles the module ahead of the first request.
func (m *Module) Warm(ctx context.Context) error {
	_, err := m.executable(ctx)
	return err
}

// Ready implements module.Module: it ensures the module is compiled, then instantiates it.
func (m *Module) Ready(ctx context.Context) (module.Instance, error) {
	exe, err := m.executable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", module.ErrNotReady, err)
	}

	inst, err := exe.Instance(ctx, m.instanceConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create plugin instance: %w", module.ErrNotReady, err)
	}

	return &instance{
		plugin:   inst,
		moduleID: exe.ID(),
		logger:   m.logger.WithGroup("instance"),
	}, nil
}

// Close releases the compiled module and the compiler. Ready fails afterwards.
func (m *Module) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var err error
	if m.exe != nil {
		err = m.exe.Close(ctx)
		m.exe = nil
	}
	if cerr := m.compiler.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

type instance struct {
	plugin   adapters.PluginInstance
	moduleID string
	logger   *slog.Logger
}

// Call runs one export with empty input and returns its output bytes.
func (i *instance) Call(ctx context.Context, export string) ([]byte, error) {
	execID := uuid.NewString()
	logger := i.logger.With("moduleID", i.moduleID, "export", export, "execID", execID)

	startTime := time.Now()
	exit, output, err := i.plugin.CallWithContext(ctx, export, nil)
	execTime := time.Since(startTime)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrCallFailed, export, err)
	}
	if exit != 0 {
		return nil, fmt.Errorf("%w: %s returned %d", ErrExitCode, export, exit)
	}

	logger.DebugContext(ctx, "execution complete", "outputLength", len(output), "execTime", execTime)
	return output, nil
}

func (i *instance) Close(ctx context.Context) error {
	return i.plugin.Close(ctx)
}
