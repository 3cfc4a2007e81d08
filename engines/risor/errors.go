package risor

import "errors"

var (
	ErrLoaderNil     = errors.New("loader is nil")
	ErrModuleClosed  = errors.New("module is closed")
	ErrCallFailed    = errors.New("execution failed")
	ErrOutputInvalid = errors.New("export returned an unsupported value")
)
