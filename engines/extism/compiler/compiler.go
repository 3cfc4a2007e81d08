package compiler

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	extismSDK "github.com/extism/go-sdk"
	"github.com/robbyt/go-edgeworker/engines/extism/adapters"
	"github.com/robbyt/go-edgeworker/engines/extism/compiler/internal/compile"
	"github.com/robbyt/go-edgeworker/internal/helpers"
	"github.com/tetratelabs/wazero"
)

// Compiler turns WASM bytes into an Executable, verifying that the required exports exist.
type Compiler struct {
	exports    []string
	options    *compile.Settings
	cache      wazero.CompilationCache
	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a new Extism WASM Compiler with the provided options.
func New(opts ...FunctionalOption) (*Compiler, error) {
	c := &Compiler{
		options: &compile.Settings{},
	}
	c.applyDefaults()

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("error applying compiler option: %w", err)
		}
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid compiler configuration: %w", err)
	}

	if c.logger != nil {
		c.logHandler = c.logger.Handler()
	} else {
		c.logHandler, c.logger = helpers.SetupLogger(c.logHandler, "extism", "Compiler")
	}

	return c, nil
}

func (c *Compiler) String() string {
	return "extism.Compiler"
}

// Exports returns the export names this compiler requires.
func (c *Compiler) Exports() []string {
	return c.exports
}

// Compile reads and closes moduleReader, compiles the module, and checks every required export
// with a throwaway instance.
func (c *Compiler) Compile(ctx context.Context, moduleReader io.ReadCloser) (*Executable, error) {
	logger := c.logger.WithGroup("compile")

	if moduleReader == nil {
		return nil, ErrContentNil
	}

	wasmBytes, err := io.ReadAll(moduleReader)
	if err != nil {
		moduleReader.Close()
		return nil, fmt.Errorf("failed to read module: %w", err)
	}

	if err := moduleReader.Close(); err != nil {
		return nil, fmt.Errorf("failed to close reader: %w", err)
	}

	if len(wasmBytes) == 0 {
		logger.ErrorContext(ctx, "Compile called with empty module")
		return nil, ErrContentNil
	}

	id := helpers.ShortHash(wasmBytes)
	logger = logger.With("moduleID", id)
	logger.DebugContext(ctx, "Starting WASM compilation", "moduleLength", len(wasmBytes))

	plugin, err := compile.CompileBytes(ctx, wasmBytes, c.options)
	if err != nil {
		logger.WarnContext(ctx, "WASM compilation failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	if plugin == nil {
		logger.ErrorContext(ctx, "Compilation returned nil plugin")
		return nil, ErrBytecodeNil
	}

	if err := c.verifyExports(ctx, plugin); err != nil {
		if closeErr := plugin.Close(ctx); closeErr != nil {
			logger.WarnContext(ctx, "Failed to close rejected plugin", "error", closeErr)
		}
		return nil, err
	}

	executable := NewExecutable(id, len(wasmBytes), plugin, c.exports)
	if executable == nil {
		return nil, ErrExecCreationFailed
	}

	logger.DebugContext(ctx, "WASM compilation completed successfully", "exports", c.exports)
	return executable, nil
}

func (c *Compiler) verifyExports(ctx context.Context, plugin adapters.CompiledPlugin) error {
	instance, err := plugin.Instance(ctx, extismSDK.PluginInstanceConfig{})
	if err != nil {
		return fmt.Errorf("%w: failed to create test instance: %w", ErrValidationFailed, err)
	}
	defer func() {
		if err := instance.Close(ctx); err != nil {
			c.logger.Warn("Failed to close Extism plugin instance in compiler", "error", err)
		}
	}()

	var missing []string
	for _, name := range c.exports {
		if !instance.FunctionExists(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: export functions not found: %v", ErrValidationFailed, missing)
	}
	return nil
}

// Close releases the on-disk compilation cache, if one was configured.
func (c *Compiler) Close(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Close(ctx)
}
