package loader

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferLoader(t *testing.T) {
	t.Parallel()

	existing, err := NewFromBytes([]byte(wasmHeader))
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    any
		wantType Loader
		wantErr  error
		anyErr   bool
	}{
		{name: "https url", input: "https://example.com/main.wasm", wantType: &FromHTTP{}},
		{name: "http url", input: "http://example.com/main.wasm", wantType: &FromHTTP{}},
		{name: "file url", input: "file:///srv/main.wasm", wantType: &FromDisk{}},
		{name: "absolute path", input: "/srv/main.wasm", wantType: &FromDisk{}},
		{name: "relative path", input: "testdata/main.wasm", wantType: &FromDisk{}},
		{name: "bytes", input: []byte(wasmHeader), wantType: &FromBytes{}},
		{name: "reader", input: strings.NewReader(wasmHeader), wantType: &FromBytes{}},
		{name: "loader passthrough", input: existing, wantType: &FromBytes{}},
		{name: "empty string", input: "  ", wantErr: ErrModuleUnavailable},
		{name: "unknown scheme", input: "ftp://example.com/main.wasm", wantErr: ErrSchemeUnsupported},
		{name: "unsupported type", input: 42, anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := InferLoader(tt.input)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				return
			case tt.anyErr:
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, l)
		})
	}

	t.Run("relative path becomes absolute", func(t *testing.T) {
		l, err := InferLoader("testdata/main.wasm")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(l.GetSourceURL().Path))
	})
}
