package module

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Func is an in-process export.
type Func func(ctx context.Context) ([]byte, error)

// Funcs is a Module backed by Go functions, for embedding and tests.
// A nil ReadyFunc makes Ready always succeed.
type Funcs struct {
	Exports   map[string]Func
	ReadyFunc func(ctx context.Context) error

	readyCount atomic.Int64
}

// Text returns a Func that always produces s.
func Text(s string) Func {
	return func(context.Context) ([]byte, error) { return []byte(s), nil }
}

// ReadyCount reports how many times Ready has been called.
func (f *Funcs) ReadyCount() int64 {
	return f.readyCount.Load()
}

func (f *Funcs) Ready(ctx context.Context) (Instance, error) {
	f.readyCount.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	if f.ReadyFunc != nil {
		if err := f.ReadyFunc(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotReady, err)
		}
	}
	return &funcsInstance{exports: f.Exports}, nil
}

type funcsInstance struct {
	exports map[string]Func
	closed  atomic.Bool
}

func (i *funcsInstance) Call(ctx context.Context, export string) ([]byte, error) {
	if i.closed.Load() {
		return nil, ErrInstanceClosed
	}
	fn, ok := i.exports[export]
	if !ok || fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrExportNotFound, export)
	}
	return fn(ctx)
}

func (i *funcsInstance) Close(context.Context) error {
	i.closed.Store(true)
	return nil
}
