package compile

import (
	"context"
	"errors"
	"fmt"

	risorLib "github.com/risor-io/risor"
	risorCompiler "github.com/risor-io/risor/compiler"
	risorErrors "github.com/risor-io/risor/errz"
	risorParser "github.com/risor-io/risor/parser"
)

// Compile parses and compiles the script content into bytecode. The names of Risor's default globals
// (builtins and standard modules) are always known to the compiler, so scripts may use them freely.
func Compile(ctx context.Context, source string) (*risorCompiler.Code, error) {
	if source == "" {
		return nil, ErrContentNil
	}

	ast, err := risorParser.Parse(ctx, source)
	if err != nil {
		errMsg := err.Error()
		var friendlyErr risorErrors.FriendlyError
		if errors.As(err, &friendlyErr) {
			errMsg = friendlyErr.FriendlyErrorMessage()
		}
		return nil, fmt.Errorf("%w: %s", ErrCompileFailed, errMsg)
	}

	bc, err := risorCompiler.Compile(ast, risorCompiler.WithGlobalNames(risorLib.NewConfig().GlobalNames()))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}
	return bc, nil
}

// CallSource returns source followed by a call to export, so that evaluating it yields the export's result.
func CallSource(source, export string) string {
	return source + "\n" + export + "()\n"
}
