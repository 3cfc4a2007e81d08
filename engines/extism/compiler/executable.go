package compiler

import (
	"context"
	"sync"

	extismSDK "github.com/extism/go-sdk"
	"github.com/robbyt/go-edgeworker/engines/extism/adapters"
)

// Executable is a compiled WASM module whose required exports have been verified.
type Executable struct {
	id      string
	size    int
	plugin  adapters.CompiledPlugin
	exports []string
	closed  bool
	mu      sync.RWMutex
}

// NewExecutable creates a new Executable, or nil when any argument is missing.
func NewExecutable(id string, size int, plugin adapters.CompiledPlugin, exports []string) *Executable {
	if id == "" || plugin == nil || len(exports) == 0 {
		return nil
	}
	return &Executable{
		id:      id,
		size:    size,
		plugin:  plugin,
		exports: exports,
	}
}

// ID is the short SHA256 of the module bytes.
func (e *Executable) ID() string {
	return e.id
}

// Size is the length of the module in bytes.
func (e *Executable) Size() int {
	return e.size
}

// Exports returns the verified export names.
func (e *Executable) Exports() []string {
	return e.exports
}

// Instance creates a plugin instance from the compiled plugin, or returns ErrExecutableClosed after Close.
// Close waits for instances being created to finish.
func (e *Executable) Instance(
	ctx context.Context,
	config extismSDK.PluginInstanceConfig,
) (adapters.PluginInstance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, ErrExecutableClosed
	}
	return e.plugin.Instance(ctx, config)
}

// Close releases the compiled plugin. It is safe to call more than once.
func (e *Executable) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.plugin.Close(ctx)
}
