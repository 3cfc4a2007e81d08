// Package risor runs the external module as a Risor script that defines the export functions.
//
// The script is compiled once into one program per export. Every call evaluates its program on a new
// virtual machine, so no state is shared between requests.
package risor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	risorLib "github.com/risor-io/risor"
	"github.com/robbyt/go-edgeworker/engines/risor/compiler"
	"github.com/robbyt/go-edgeworker/engines/risor/internal"
	"github.com/robbyt/go-edgeworker/internal/helpers"
	"github.com/robbyt/go-edgeworker/module"
	"github.com/robbyt/go-edgeworker/module/loader"
)

// Module implements module.Module for a Risor script read from a loader.
type Module struct {
	ldr          loader.Loader
	compilerOpts []compiler.FunctionalOption

	compiler *compiler.Compiler

	mu     sync.Mutex
	exe    *compiler.Executable
	closed bool

	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a Module. The script is read and compiled on the first Ready or Warm call.
// Unless overridden by WithCompilerOptions, the greet, prototype, and slots exports are required.
func New(ldr loader.Loader, opts ...Option) (*Module, error) {
	if ldr == nil {
		return nil, ErrLoaderNil
	}

	m := &Module{ldr: ldr}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("error applying module option: %w", err)
		}
	}

	m.logHandler, m.logger = helpers.SetupLogger(m.logHandler, "risor", "Module")

	compilerOpts := append([]compiler.FunctionalOption{
		compiler.WithExports(module.ExportGreet, module.ExportPrototype, module.ExportSlots),
		compiler.WithLogHandler(m.logHandler),
	}, m.compilerOpts...)

	comp, err := compiler.New(compilerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Risor compiler: %w", err)
	}
	m.compiler = comp

	return m, nil
}

func (m *Module) String() string {
	return fmt.Sprintf("risor.Module{Source: %s}", m.ldr.GetSourceURL())
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

// Ready implements module.Module.
func (m *Module) Ready(ctx context.Context) (module.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", module.ErrNotReady, err)
	}
	exe, err := m.executable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", module.ErrNotReady, err)
	}

	return &instance{
		exe:    exe,
		logger: m.logger.WithGroup("instance").With("scriptID", exe.ID(), "execID", uuid.NewString()),
	}, nil
}

type instance struct {
	exe    *compiler.Executable
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Call evaluates the program for export on a new virtual machine.
func (i *instance) Call(ctx context.Context, export string) ([]byte, error) {
	i.mu.Lock()
	closed := i.closed
	i.mu.Unlock()
	if closed {
		return nil, module.ErrInstanceClosed
	}

	code := i.exe.Call(export)
	if code == nil {
		return nil, fmt.Errorf("%w: %s", module.ErrExportNotFound, export)
	}

	logger := i.logger.With("export", export)

	startTime := time.Now()
	result, err := risorLib.EvalCode(ctx, code)
	execTime := time.Since(startTime)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCallFailed, export, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrCallFailed, export, err)
	}
	if internal.IsError(result) {
		return nil, fmt.Errorf("%w: %s: %s", ErrCallFailed, export, result.Inspect())
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
