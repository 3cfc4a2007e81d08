package compiler

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/robbyt/go-edgeworker/engines/starlark/compiler/internal/compile"
	"github.com/robbyt/go-edgeworker/internal/helpers"
	"go.starlark.net/syntax"
)

// Compiler turns Starlark source into an Executable, verifying that the required exports are defined.
type Compiler struct {
	exports     []string
	fileOptions *syntax.FileOptions
	logHandler  slog.Handler
	logger      *slog.Logger
}

// New creates a new Starlark Compiler with the provided options.
func New(opts ...FunctionalOption) (*Compiler, error) {
	c := &Compiler{}
	c.applyDefaults()

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
	return "starlark.Compiler"
}

// Exports returns the export names this compiler requires.
func (c *Compiler) Exports() []string {
	return c.exports
}

// Compile reads and closes scriptReader, compiles the script, and checks that every required export
// is bound at file scope.
func (c *Compiler) Compile(ctx context.Context, scriptReader io.ReadCloser) (*Executable, error) {
	logger := c.logger.WithGroup("compile")

	if scriptReader == nil {
		return nil, ErrContentNil
	}

	source, err := io.ReadAll(scriptReader)
	if err != nil {
		scriptReader.Close()
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	if err := scriptReader.Close(); err != nil {
		return nil, fmt.Errorf("failed to close reader: %w", err)
	}

	if len(source) == 0 {
		logger.ErrorContext(ctx, "Compile called with empty script")
		return nil, ErrContentNil
	}

	id := helpers.ShortHash(source)
	logger = logger.With("scriptID", id)
	logger.DebugContext(ctx, "Starting Starlark compilation", "scriptLength", len(source))

	f, prog, err := compile.Compile(source, c.fileOptions)
	if err != nil {
		logger.WarnContext(ctx, "Starlark compilation failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	defined := compile.TopLevelNames(f)
	var missing []string
	for _, name := range c.exports {
		if _, ok := defined[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: export functions not found: %v", ErrValidationFailed, missing)
	}

	exe := NewExecutable(id, source, prog, c.exports)
	if exe == nil {
		return nil, ErrExecCreationFailed
	}

	logger.DebugContext(ctx, "Starlark compilation completed successfully", "exports", c.exports)
	return exe, nil
}
