package compiler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/robbyt/go-edgeworker/module"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScript = `
func greet() {
    return "Hello, edgeworker!"
}

func prototype() {
    return {"id": 0}
}

func slots() {
    return "1|2|3|4|5|6"
}
`

var defaultExports = []string{module.ExportGreet, module.ExportPrototype, module.ExportSlots}

func createTestCompiler(t *testing.T, opts ...FunctionalOption) *Compiler {
	t.Helper()
	opts = append([]FunctionalOption{
		WithExports(defaultExports...),
		WithLogHandler(slog.NewTextHandler(io.Discard, nil)),
	}, opts...)
	comp, err := New(opts...)
	require.NoError(t, err)
	return comp
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

type closeErrorReader struct {
	io.Reader
}

func (closeErrorReader) Close() error { return errors.New("close failed") }

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires exports", func(t *testing.T) {
		_, err := New(WithLogHandler(slog.NewTextHandler(io.Discard, nil)))
		require.Error(t, err)
	})

	tests := []struct {
		name string
		opt  FunctionalOption
	}{
		{name: "empty exports", opt: WithExports()},
		{name: "blank export", opt: WithExports("")},
		{name: "nil handler", opt: WithLogHandler(nil)},
		{name: "nil logger", opt: WithLogger(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithExports(defaultExports...), tt.opt)
			require.Error(t, err)
		})
	}

	t.Run("logger option", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		comp, err := New(WithExports("greet"), WithLogger(logger))
		require.NoError(t, err)
		assert.Equal(t, logger.Handler(), comp.logHandler)
		assert.Equal(t, "risor.Compiler", comp.String())
		assert.Equal(t, []string{"greet"}, comp.Exports())
	})
}

func TestCompiler_Compile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid script", func(t *testing.T) {
		exe, err := createTestCompiler(t).Compile(ctx, io.NopCloser(strings.NewReader(validScript)))
		require.NoError(t, err)
		require.NotNil(t, exe)
		assert.Len(t, exe.ID(), 8)
		assert.Equal(t, validScript, exe.Source())
		for _, name := range defaultExports {
			assert.NotNil(t, exe.Call(name), name)
		}
		assert.Nil(t, exe.Call("missing"))
	})

	t.Run("nil reader", func(t *testing.T) {
		_, err := createTestCompiler(t).Compile(ctx, nil)
		require.ErrorIs(t, err, ErrContentNil)
	})

	t.Run("empty script", func(t *testing.T) {
		_, err := createTestCompiler(t).Compile(ctx, io.NopCloser(strings.NewReader("")))
		require.ErrorIs(t, err, ErrContentNil)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := createTestCompiler(t).Compile(ctx, io.NopCloser(strings.NewReader(`func greet( {`)))
		require.ErrorIs(t, err, ErrValidationFailed)
	})

	t.Run("missing exports", func(t *testing.T) {
		src := "func greet() {\n    return \"hi\"\n}\n"
		_, err := createTestCompiler(t).Compile(ctx, io.NopCloser(strings.NewReader(src)))
		require.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, err.Error(), "prototype")
		assert.Contains(t, err.Error(), "slots")
		assert.NotContains(t, err.Error(), "[greet")
	})

	t.Run("custom exports", func(t *testing.T) {
		src := "func hello() {\n    return \"hi\"\n}\n"
		exe, err := createTestCompiler(t, WithExports("hello")).Compile(ctx, io.NopCloser(strings.NewReader(src)))
		require.NoError(t, err)
		assert.NotNil(t, exe.Call("hello"))
	})

	t.Run("read error", func(t *testing.T) {
		_, err := createTestCompiler(t).Compile(ctx, io.NopCloser(failingReader{}))
		require.ErrorContains(t, err, "failed to read script")
	})

	t.Run("close error", func(t *testing.T) {
		_, err := createTestCompiler(t).Compile(ctx, closeErrorReader{strings.NewReader(validScript)})
		require.ErrorContains(t, err, "failed to close reader")
	})
}

func TestNewExecutable(t *testing.T) {
	t.Parallel()
	assert.Nil(t, NewExecutable("", "x", nil))
	assert.Nil(t, NewExecutable("abcd1234", "", nil))
	assert.Nil(t, NewExecutable("abcd1234", "x", nil))
}
