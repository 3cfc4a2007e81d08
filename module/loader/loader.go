// Package loader provides the sources a module's bytes can be read from: local disk, HTTP, or memory.
package loader

import (
	"context"
	"io"
	"net/url"
)

// Loader is used by the engines to read module content (WASM binaries or scripts).
type Loader interface {
	GetReader(ctx context.Context) (io.ReadCloser, error)
	GetSourceURL() *url.URL
}
