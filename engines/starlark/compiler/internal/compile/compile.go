package compile

import (
	"fmt"

	"github.com/robbyt/go-edgeworker/engines/starlark/internal"
	starlarkLib "go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Compile parses and compiles the script content into a Starlark program.
// The parsed file is returned with the program so callers can inspect its top-level definitions.
func Compile(
	scriptBodyBytes []byte,
	opts *syntax.FileOptions,
) (*syntax.File, *starlarkLib.Program, error) {
	if scriptBodyBytes == nil {
		return nil, nil, ErrContentNil
	}

	if opts == nil {
		opts = &syntax.FileOptions{}
	}

	f, err := opts.Parse("module.star", scriptBodyBytes, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}

	prog, err := starlarkLib.FileProgram(f, internal.StarlarkModules().Has)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrCompileFailed, err)
	}

	return f, prog, nil
}

// TopLevelNames returns the names bound by def statements and plain assignments at file scope.
func TopLevelNames(f *syntax.File) map[string]struct{} {
	names := make(map[string]struct{})
	if f == nil {
		return names
	}
	for _, stmt := range f.Stmts {
		switch s := stmt.(type) {
		case *syntax.DefStmt:
			names[s.Name.Name] = struct{}{}
		case *syntax.AssignStmt:
			if id, ok := s.LHS.(*syntax.Ident); ok {
				names[id.Name] = struct{}{}
			}
		}
	}
	return names
}
