// Package starlark runs the external module as a Starlark script that defines the export functions.
//
// The script is compiled once. Every Ready call initializes the program on a fresh thread, so each
// request gets its own globals and no state is shared between requests.
package starlark

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robbyt/go-edgeworker/engines/starlark/compiler"
	"github.com/robbyt/go-edgeworker/engines/starlark/internal"
	"github.com/robbyt/go-edgeworker/internal/helpers"
	"github.com/robbyt/go-edgeworker/module"
	"github.com/robbyt/go-edgeworker/module/loader"
	starlarkLib "go.starlark.net/starlark"
)

// Module implements module.Module for a Starlark script read from a loader.
type Module struct {
	ldr          loader.Loader
	compilerOpts []compiler.FunctionalOption
	maxSteps     uint64
	predeclared  starlarkLib.StringDict

	compiler *compiler.Compiler

	mu     sync.Mutex
	exe    *compiler.Executable
	closed bool

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a Module. The script is read and compiled on the first Ready or Warm call.
func New(ldr loader.Loader, opts ...Option) (*Module, error) {
	if ldr == nil {
		return nil, ErrLoaderNil
	}

	m := &Module{
		ldr:         ldr,
		predeclared: internal.StarlarkModules(),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("error applying module option: %w", err)
		}
	}

	m.logHandler, m.logger = helpers.SetupLogger(m.logHandler, "starlark", "Module")

	compilerOpts := append([]compiler.FunctionalOption{
		compiler.WithExports(module.ExportGreet, module.ExportPrototype, module.ExportSlots),
		compiler.WithLogHandler(m.logHandler),
	}, m.compilerOpts...)

	comp, err := compiler.New(compilerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Starlark compiler: %w", err)
	}
	m.compiler = comp

	return m, nil
}

func (m *Module) String() string {
	return fmt.Sprintf("starlark.Module{Source: %s}", m.ldr.GetSourceURL())
}

// executable returns the compiled script, compiling it on first use. Failures are not remembered.
func (m *Module) executable(ctx context.Context) (*compiler.Executable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrModuleClosed
	}
	if m.exe != nil {
		return m.exe, nil
	}

	reader, err := m.ldr.GetReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	exe, err := m.compiler.Compile(ctx, reader)
	if err != nil {
		m.logger.ErrorContext(ctx, "script compilation failed", "source", m.ldr.GetSourceURL(), "error", err)
		return nil, err
	}
	m.logger.InfoContext(ctx, "script compiled", "source", m.ldr.GetSourceURL(), "scriptID", exe.ID())
	m.exe = exe
	return exe, nil
}

// Warm compiles the script ahead of the first request.
func (m *Module) Warm(ctx context.Context) error {
	_, err := m.executable(ctx)
	return err
}

// Close drops the compiled script. Ready fails afterwards; instances already handed out keep working.
func (m *Module) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.exe = nil
	return nil
}

// newThread returns a thread that is cancelled with ctx. The returned stop func must be called
// when the thread is no longer used.
func (m *Module) newThread(ctx context.Context, name string, logger *slog.Logger) (*starlarkLib.Thread, func() bool) {
	thread := &starlarkLib.Thread{
		Name: name,
		Print: func(thread *starlarkLib.Thread, msg string) {
			logger.InfoContext(ctx, msg, "starlark-thread", thread.Name)
		},
	}
	if m.maxSteps > 0 {
		thread.SetMaxExecutionSteps(m.maxSteps)
	}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel(ctx.Err().Error())
	})
	return thread, stop
}

// Ready implements module.Module. It runs the script's top-level statements on a new thread.
func (m *Module) Ready(ctx context.Context) (module.Instance, error) {
	exe, err := m.executable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", module.ErrNotReady, err)
	}

	execID := uuid.NewString()
	logger := m.logger.WithGroup("instance").With("scriptID", exe.ID(), "execID", execID)

	thread, stop := m.newThread(ctx, "init", logger)
	defer stop()

	globals, err := exe.Program().Init(thread, m.predeclared)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", module.ErrNotReady, ErrInitFailed, err)
	}
	globals.Freeze()

	return &instance{
		module:  m,
		globals: globals,
		logger:  logger,
	}, nil
}

type instance struct {
	module  *Module
	globals starlarkLib.StringDict
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Call invokes the named top-level function with no arguments.
func (i *instance) Call(ctx context.Context, export string) ([]byte, error) {
	i.mu.Lock()
	closed := i.closed
	i.mu.Unlock()
	if closed {
		return nil, module.ErrInstanceClosed
	}

	val, ok := i.globals[export]
	if !ok {
		return nil, fmt.Errorf("%w: %s", module.ErrExportNotFound, export)
	}
	fn, ok := val.(starlarkLib.Callable)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotCallable, export, val.Type())
	}

	logger := i.logger.With("export", export)
	thread, stop := i.module.newThread(ctx, export, logger)
	defer stop()

	startTime := time.Now()
	result, err := starlarkLib.Call(thread, fn, nil, nil)
	execTime := time.Since(startTime)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCallFailed, export, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrCallFailed, export, err)
	}

	out, err := internal.ExportOutput(result)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOutputInvalid, export, err)
	}

	logger.DebugContext(ctx, "execution complete", "outputLength", len(out), "execTime", execTime)
	return out, nil
}

func (i *instance) Close(context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.closed = true
	return nil
}
