package internal

import (
	"testing"

	rObj "github.com/risor-io/risor/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObject stands in for a Risor value with a fixed type and Go form
type fakeObject struct {
	rObj.Object
	typ   rObj.Type
	value any
}

func (f fakeObject) Type() rObj.Type { return f.typ }
func (f fakeObject) Interface() any { return f.value }
func (f fakeObject) Inspect() string { return string(f.typ) }

func TestExportOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    rObj.Object
		expected string
		wantErr  bool
	}{
		{name: "nil", input: nil, expected: "null"},
		{name: "string", input: fakeObject{typ: "string", value: "Hello"}, expected: "Hello"},
		{name: "bytes", input: fakeObject{typ: "byte_slice", value: []byte{0x01, 'a'}}, expected: "\x01a"},
		{name: "int", input: fakeObject{typ: "int", value: int64(7)}, expected: "7"},
		{name: "nil value", input: fakeObject{typ: "nil", value: nil}, expected: "null"},
		{
			name:     "map",
			input:    fakeObject{typ: "map", value: map[string]any{"id": int64(0), "tags": []any{"a"}}},
			expected: `{"id":0,"tags":["a"]}`,
		},
		{name: "function", input: fakeObject{typ: "function"}, wantErr: true},
		{name: "builtin", input: fakeObject{typ: "builtin"}, wantErr: true},
		{name: "unencodable", input: fakeObject{typ: "chan", value: make(chan int)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := ExportOutput(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestIsError(t *testing.T) {
	t.Parallel()
	assert.True(t, IsError(fakeObject{typ: "error"}))
	assert.False(t, IsError(fakeObject{typ: "string"}))
	assert.False(t, IsError(nil))
}
