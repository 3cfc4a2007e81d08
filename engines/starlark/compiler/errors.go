package compiler

import "errors"

var (
	ErrContentNil         = errors.New("starlark content is nil")
	ErrValidationFailed   = errors.New("starlark script validation error")
	ErrExecCreationFailed = errors.New("unable to create starlark executable")
)
