package loader

import "errors"

var (
	ErrSchemeUnsupported = errors.New("unsupported scheme")
	ErrModuleUnavailable = errors.New("module not available")
	ErrDecompress        = errors.New("unable to decompress module")
)
