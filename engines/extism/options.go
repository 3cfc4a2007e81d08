package extism

import (
	"fmt"
	"log/slog"

	extismSDK "github.com/extism/go-sdk"
	"github.com/robbyt/go-edgeworker/engines/extism/compiler"
)

// Option configures a Module
type Option func(*Module) error

// WithLogHandler sets the log handler for the module and its compiler.
func WithLogHandler(handler slog.Handler) Option {
	return func(m *Module) error {
		if handler == nil {
			return fmt.Errorf("log handler cannot be nil")
		}
		m.logHandler = handler
		return nil
	}
}

// WithCompilerOptions passes options through to the compiler, e.g. compiler.WithWASIEnabled.
func WithCompilerOptions(opts ...compiler.FunctionalOption) Option {
	return func(m *Module) error {
		m.compilerOpts = append(m.compilerOpts, opts...)
		return nil
	}
}

// WithInstanceConfig replaces the factory for the per-request plugin instance config.
func WithInstanceConfig(fn func() extismSDK.PluginInstanceConfig) Option {
	return func(m *Module) error {
		if fn == nil {
			return fmt.Errorf("instance config func cannot be nil")
		}
		m.instanceConfig = fn
		return nil
	}
}
