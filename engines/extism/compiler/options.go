package compiler

import (
	"fmt"
	"log/slog"

	extismSDK "github.com/extism/go-sdk"
	"github.com/tetratelabs/wazero"
)

// FunctionalOption configures a Compiler
type FunctionalOption func(*Compiler) error

// WithExports sets the export names every compiled module must provide.
func WithExports(exports ...string) FunctionalOption {
	return func(c *Compiler) error {
		if len(exports) == 0 {
			return fmt.Errorf("exports cannot be empty")
		}
		for _, name := range exports {
			if name == "" {
				return fmt.Errorf("export name cannot be empty")
			}
		}
		c.exports = append([]string(nil), exports...)
		return nil
	}
}

// WithLogHandler sets the log handler for the compiler. Preferred over WithLogger.
func WithLogHandler(handler slog.Handler) FunctionalOption {
	return func(c *Compiler) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		c.logHandler = handler
		c.logger = nil
		return nil
	}
}

// WithLogger sets a specific logger for the compiler.
func WithLogger(logger *slog.Logger) FunctionalOption {
	return func(c *Compiler) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		c.logHandler = nil
		return nil
	}
}

// WithWASIEnabled enables or disables WASI support
func WithWASIEnabled(enabled bool) FunctionalOption {
	return func(c *Compiler) error {
		c.options.EnableWASI = enabled
		return nil
	}
}

// WithRuntimeConfig sets a custom wazero runtime configuration
func WithRuntimeConfig(config wazero.RuntimeConfig) FunctionalOption {
	return func(c *Compiler) error {
		if config == nil {
			return fmt.Errorf("runtime config cannot be nil")
		}
		c.options.RuntimeConfig = config
		return nil
	}
}

// WithCompilationCacheDir persists wazero's compiled machine code in dir, so restarts of the
// worker skip recompiling an unchanged module. Apply it after WithRuntimeConfig.
func WithCompilationCacheDir(dir string) FunctionalOption {
	return func(c *Compiler) error {
		if dir == "" {
			return fmt.Errorf("compilation cache dir cannot be empty")
		}
		cache, err := wazero.NewCompilationCacheWithDir(dir)
		if err != nil {
			return fmt.Errorf("failed to open compilation cache: %w", err)
		}
		c.cache = cache
		c.options.RuntimeConfig = c.options.RuntimeConfig.WithCompilationCache(cache)
		return nil
	}
}

// WithHostFunctions sets additional host functions
func WithHostFunctions(funcs []extismSDK.HostFunction) FunctionalOption {
	return func(c *Compiler) error {
		c.options.HostFunctions = funcs
		return nil
	}
}

func (c *Compiler) applyDefaults() {
	c.options.EnableWASI = true
	// closing on context done lets a cancelled request stop a running export
	c.options.RuntimeConfig = wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	c.options.HostFunctions = []extismSDK.HostFunction{}
}

func (c *Compiler) validate() error {
	if len(c.exports) == 0 {
		return fmt.Errorf("at least one export must be specified")
	}
	if c.options.RuntimeConfig == nil {
		return fmt.Errorf("runtime config cannot be nil")
	}
	return nil
}
