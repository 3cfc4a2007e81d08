package extism

import "errors"

var (
	ErrLoaderNil    = errors.New("loader is nil")
	ErrModuleClosed = errors.New("module is closed")
	ErrExitCode     = errors.New("export returned non-zero exit code")
	ErrCancelled    = errors.New("execution cancelled")
	ErrCallFailed   = errors.New("execution failed")
)
