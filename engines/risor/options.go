package risor

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-edgeworker/engines/risor/compiler"
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

// WithCompilerOptions passes options through to the compiler.
func WithCompilerOptions(opts ...compiler.FunctionalOption) Option {
	return func(m *Module) error {
		m.compilerOpts = append(m.compilerOpts, opts...)
		return nil
	}
}
