package compiler

import (
	risorCompiler "github.com/risor-io/risor/compiler"
)

// Executable is a compiled Risor script with one program per required export. Each program runs the
// whole script, then calls its export.
type Executable struct {
	id     string
	source string
	calls  map[string]*risorCompiler.Code
}

// NewExecutable creates a new Executable, or nil when any argument is missing.
func NewExecutable(id, source string, calls map[string]*risorCompiler.Code) *Executable {
	if id == "" || source == "" || len(calls) == 0 {
		return nil
	}
	for _, code := range calls {
		if code == nil {
			return nil
		}
	}
	return &Executable{
		id:     id,
		source: source,
		calls:  calls,
	}
}

// ID is the short SHA256 of the script source.
func (e *Executable) ID() string {
	return e.id
}

// Source returns the script source.
func (e *Executable) Source() string {
	return e.source
}

// Call returns the program that calls export, or nil when export was not compiled.
// Code is immutable and may be evaluated concurrently.
func (e *Executable) Call(export string) *risorCompiler.Code {
	return e.calls[export]
}
