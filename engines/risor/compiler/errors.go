package compiler

import "errors"

var (
	ErrContentNil         = errors.New("risor content is nil")
	ErrValidationFailed   = errors.New("risor script validation error")
	ErrExecCreationFailed = errors.New("unable to create risor executable")
)
