package module

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncs(t *testing.T) {
	t.Parallel()

	t.Run("calls export", func(t *testing.T) {
		mod := &Funcs{Exports: map[string]Func{ExportGreet: Text("hello")}}

		inst, err := mod.Ready(context.Background())
		require.NoError(t, err)
		out, err := inst.Call(context.Background(), ExportGreet)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), out)
		assert.Equal(t, int64(1), mod.ReadyCount())
	})

	t.Run("unknown export", func(t *testing.T) {
		mod := &Funcs{}
		inst, err := mod.Ready(context.Background())
		require.NoError(t, err)

		_, err = inst.Call(context.Background(), "missing")
		require.ErrorIs(t, err, ErrExportNotFound)
		assert.Contains(t, err.Error(), "missing")
	})

	t.Run("ready failure", func(t *testing.T) {
		boom := errors.New("load failed")
		mod := &Funcs{ReadyFunc: func(context.Context) error { return boom }}

		inst, err := mod.Ready(context.Background())
		require.ErrorIs(t, err, ErrNotReady)
		require.ErrorIs(t, err, boom)
		assert.Nil(t, inst)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := (&Funcs{}).Ready(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("closed instance", func(t *testing.T) {
		mod := &Funcs{Exports: map[string]Func{ExportGreet: Text("hello")}}
		inst, err := mod.Ready(context.Background())
		require.NoError(t, err)
		require.NoError(t, inst.Close(context.Background()))

		_, err = inst.Call(context.Background(), ExportGreet)
		require.ErrorIs(t, err, ErrInstanceClosed)
	})
}
