package starlark

import "errors"

var (
	ErrLoaderNil     = errors.New("loader is nil")
	ErrModuleClosed  = errors.New("module is closed")
	ErrNotCallable   = errors.New("export is not callable")
	ErrCallFailed    = errors.New("execution failed")
	ErrInitFailed    = errors.New("script initialization failed")
	ErrOutputInvalid = errors.New("export returned an unsupported value")
)
