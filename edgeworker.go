// Package edgeworker serves HTTP requests from the exports of an external module.
//
// A module is an Extism WASM plugin, a Starlark script, or a Risor script. Each defines three exports:
// greet, prototype, and slots. The router maps "/" to greet, "/prototype" to prototype wrapped
// as {"game": ...}, and "/slots" to slots; every other path gets a 404.
package edgeworker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robbyt/go-edgeworker/engines/extism"
	"github.com/robbyt/go-edgeworker/engines/risor"
	"github.com/robbyt/go-edgeworker/engines/starlark"
	"github.com/robbyt/go-edgeworker/module"
	"github.com/robbyt/go-edgeworker/module/loader"
	"github.com/robbyt/go-edgeworker/router"
)

// Module is a module backend that can be compiled ahead of traffic and released.
type Module interface {
	module.Module
	Warm(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Module = (*extism.Module)(nil)
	_ Module = (*starlark.Module)(nil)
	_ Module = (*risor.Module)(nil)
)

// Engine names accepted by NewModule.
const (
	EngineExtism   = "extism"
	EngineStarlark = "starlark"
	EngineRisor    = "risor"
)

// NewHandler creates the request router for mod.
func NewHandler(mod module.Module, opts ...router.Option) (*router.Router, error) {
	return router.New(mod, opts...)
}

// NewModule creates a module for engine from any source accepted by loader.InferLoader.
// The log handler may be nil.
func NewModule(engine string, source any, logHandler slog.Handler) (Module, error) {
	ldr, err := loader.InferLoader(source)
	if err != nil {
		return nil, err
	}

	switch engine {
	case EngineExtism:
		var opts []extism.Option
		if logHandler != nil {
			opts = append(opts, extism.WithLogHandler(logHandler))
		}
		return extism.New(ldr, opts...)
	case EngineStarlark:
		var opts []starlark.Option
		if logHandler != nil {
			opts = append(opts, starlark.WithLogHandler(logHandler))
		}
		return starlark.New(ldr, opts...)
	case EngineRisor:
		var opts []risor.Option
		if logHandler != nil {
			opts = append(opts, risor.WithLogHandler(logHandler))
		}
		return risor.New(ldr, opts...)
	default:
		return nil, fmt.Errorf("unknown module engine %q", engine)
	}
}

// FromExtismLoader creates an Extism module from a loader.
func FromExtismLoader(ldr loader.Loader, opts ...extism.Option) (*extism.Module, error) {
	return extism.New(ldr, opts...)
}

// FromExtismFile creates an Extism module from a WASM file.
func FromExtismFile(filePath string, opts ...extism.Option) (*extism.Module, error) {
	l, err := loader.NewFromDisk(filePath)
	if err != nil {
		return nil, err
	}
	return extism.New(l, opts...)
}

// FromExtismBytes creates an Extism module from WASM bytes, gzipped or not.
func FromExtismBytes(wasm []byte, opts ...extism.Option) (*extism.Module, error) {
	l, err := loader.NewFromBytes(wasm)
	if err != nil {
		return nil, err
	}
	return extism.New(l, opts...)
}

// FromStarlarkString creates a Starlark module from a script string.
func FromStarlarkString(content string, opts ...starlark.Option) (*starlark.Module, error) {
	l, err := loader.NewFromString(content)
	if err != nil {
		return nil, err
	}
	return starlark.New(l, opts...)
}

// FromStarlarkFile creates a Starlark module from a script file.
func FromStarlarkFile(filePath string, opts ...starlark.Option) (*starlark.Module, error) {
	l, err := loader.NewFromDisk(filePath)
	if err != nil {
		return nil, err
	}
	return starlark.New(l, opts...)
}

// FromRisorString creates a Risor module from a script string.
func FromRisorString(content string, opts ...risor.Option) (*risor.Module, error) {
	l, err := loader.NewFromString(content)
	if err != nil {
		return nil, err
	}
	return risor.New(l, opts...)
}

// FromRisorFile creates a Risor module from a script file.
func FromRisorFile(filePath string, opts ...risor.Option) (*risor.Module, error) {
	l, err := loader.NewFromDisk(filePath)
	if err != nil {
		return nil, err
	}
	return risor.New(l, opts...)
}
