package compile

import "errors"

var (
	ErrCompileFailed = errors.New("failed to load wasm binary")
	ErrContentNil    = errors.New("wasm content is nil")
)
