package compiler

import (
	starlarkLib "go.starlark.net/starlark"
)

// Executable is a compiled Starlark script whose required exports are defined.
type Executable struct {
	id      string
	source  []byte
	program *starlarkLib.Program
	exports []string
}

// NewExecutable creates a new Executable, or nil when any argument is missing.
func NewExecutable(id string, source []byte, program *starlarkLib.Program, exports []string) *Executable {
	if id == "" || len(source) == 0 || program == nil {
		return nil
	}
	return &Executable{
		id:      id,
		source:  source,
		program: program,
		exports: exports,
	}
}

// ID is the short SHA256 of the script source.
func (e *Executable) ID() string {
	return e.id
}

// Source returns the script source.
func (e *Executable) Source() string {
	return string(e.source)
}

// Program returns the compiled program. A Program is immutable and may be initialized concurrently.
func (e *Executable) Program() *starlarkLib.Program {
	return e.program
}

// Exports returns the verified export names.
func (e *Executable) Exports() []string {
	return e.exports
}
