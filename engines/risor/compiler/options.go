package compiler

import (
	"fmt"
	"log/slog"

	"github.com/robbyt/go-edgeworker/internal/helpers"
)

// FunctionalOption is a function that configures a Compiler instance
type FunctionalOption func(*Compiler) error

// WithExports sets the function names every script must define.
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

// WithLogHandler creates an option to set the log handler for Risor compiler.
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

// WithLogger creates an option to set a specific logger for Risor compiler.
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

func (c *Compiler) setupLogger() {
	if c.logger != nil {
		c.logHandler = c.logger.Handler()
	} else {
		c.logHandler, c.logger = helpers.SetupLogger(c.logHandler, "risor", "Compiler")
	}
}

func (c *Compiler) validate() error {
	if len(c.exports) == 0 {
		return fmt.Errorf("at least one export must be specified")
	}
	return nil
}
