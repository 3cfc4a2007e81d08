package loader

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

type decompressReader struct {
	io.Reader
	closers []io.Closer
}

func (d *decompressReader) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Decompress sniffs the first bytes of rc and transparently gunzips it when it is a gzip stream,
// so modules can be shipped as main.wasm.gz. Uncompressed content is passed through untouched.
// Closing the returned reader closes rc.
func Decompress(rc io.ReadCloser) (io.ReadCloser, error) {
	if rc == nil {
		return nil, fmt.Errorf("%w: reader is nil", ErrModuleUnavailable)
	}

	br := bufio.NewReader(rc)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		rc.Close()
		return nil, fmt.Errorf("%w: %w", ErrModuleUnavailable, err)
	}

	if len(head) < len(gzipMagic) || head[0] != gzipMagic[0] || head[1] != gzipMagic[1] {
		return &decompressReader{Reader: br, closers: []io.Closer{rc}}, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("%w: %w", ErrDecompress, err)
	}
	return &decompressReader{Reader: zr, closers: []io.Closer{zr, rc}}, nil
}
