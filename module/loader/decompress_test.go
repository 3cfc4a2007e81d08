package loader

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackingCloser struct {
	io.Reader
	closed bool
	err    error
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return c.err
}

func TestDecompress(t *testing.T) {
	t.Parallel()

	t.Run("plain content passes through", func(t *testing.T) {
		src := &trackingCloser{Reader: bytes.NewReader([]byte(wasmHeader))}
		rc, err := Decompress(src)
		require.NoError(t, err)

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, []byte(wasmHeader), data)

		require.NoError(t, rc.Close())
		assert.True(t, src.closed)
	})

	t.Run("gzip content is decompressed", func(t *testing.T) {
		src := &trackingCloser{Reader: bytes.NewReader(gzipped(t, []byte(wasmHeader)))}
		rc, err := Decompress(src)
		require.NoError(t, err)

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, []byte(wasmHeader), data)

		require.NoError(t, rc.Close())
		assert.True(t, src.closed)
	})

	t.Run("single byte content", func(t *testing.T) {
		rc, err := Decompress(io.NopCloser(bytes.NewReader([]byte{0x1f})))
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x1f}, data)
	})

	t.Run("corrupt gzip header", func(t *testing.T) {
		src := &trackingCloser{Reader: bytes.NewReader([]byte{0x1f, 0x8b, 0x00})}
		rc, err := Decompress(src)
		require.Error(t, err)
		require.ErrorIs(t, err, ErrDecompress)
		assert.Nil(t, rc)
		assert.True(t, src.closed)
	})

	t.Run("nil reader", func(t *testing.T) {
		_, err := Decompress(nil)
		require.ErrorIs(t, err, ErrModuleUnavailable)
	})

	t.Run("close error is returned", func(t *testing.T) {
		src := &trackingCloser{Reader: bytes.NewReader([]byte("x")), err: errors.New("boom")}
		rc, err := Decompress(src)
		require.NoError(t, err)
		require.EqualError(t, rc.Close(), "boom")
	})
}
