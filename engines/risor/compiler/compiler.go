package compiler

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	risorCompiler "github.com/risor-io/risor/compiler"
	"github.com/robbyt/go-edgeworker/engines/risor/compiler/internal/compile"
	"github.com/robbyt/go-edgeworker/internal/helpers"
)

// Compiler turns Risor source into an Executable, verifying that the required exports are defined.
type Compiler struct {
	exports    []string
	logHandler slog.Handler
	logger     *slog.Logger
}

// New creates a new Risor Compiler with the provided options.
func New(opts ...FunctionalOption) (*Compiler, error) {
	c := &Compiler{}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("error applying compiler option: %w", err)
		}
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid compiler configuration: %w", err)
	}

	c.setupLogger()
	return c, nil
}

func (c *Compiler) String() string {
	return "risor.Compiler"
}

// Exports returns the export names this compiler requires.
func (c *Compiler) Exports() []string {
	return c.exports
}

// Compile reads and closes scriptReader, compiles the script, then compiles one call program per export.
// Risor rejects references to undefined names at compile time, so a missing export fails here.
func (c *Compiler) Compile(ctx context.Context, scriptReader io.ReadCloser) (*Executable, error) {
	logger := c.logger.WithGroup("compile")

	if scriptReader == nil {
		return nil, ErrContentNil
	}

	raw, err := io.ReadAll(scriptReader)
	if err != nil {
		scriptReader.Close()
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	if err := scriptReader.Close(); err != nil {
		return nil, fmt.Errorf("failed to close reader: %w", err)
	}

	if len(raw) == 0 {
		logger.ErrorContext(ctx, "Compile called with empty script")
		return nil, ErrContentNil
	}
	source := string(raw)

	id := helpers.ShortHash(raw)
	logger = logger.With("scriptID", id)
	logger.DebugContext(ctx, "Starting Risor compilation", "scriptLength", len(source))

	if _, err := compile.Compile(ctx, source); err != nil {
		logger.WarnContext(ctx, "Risor compilation failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	calls := make(map[string]*risorCompiler.Code, len(c.exports))
	var missing []string
	for _, name := range c.exports {
		code, err := compile.Compile(ctx, compile.CallSource(source, name))
		if err != nil {
			logger.DebugContext(ctx, "export did not compile", "export", name, "error", err)
			missing = append(missing, name)
			continue
		}
		calls[name] = code
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: export functions not found: %v", ErrValidationFailed, missing)
	}

	exe := NewExecutable(id, source, calls)
	if exe == nil {
		return nil, ErrExecCreationFailed
	}

	logger.DebugContext(ctx, "Risor compilation completed successfully", "exports", c.exports)
	return exe, nil
}
