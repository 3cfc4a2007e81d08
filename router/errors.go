package router

import "errors"

var (
	ErrModuleNil      = errors.New("module is nil")
	ErrInvalidRoute   = errors.New("invalid route")
	ErrDuplicateRoute = errors.New("duplicate route path")
	ErrShapeFailed    = errors.New("failed to shape export output")
)
