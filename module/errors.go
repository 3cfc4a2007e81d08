package module

import "errors"

var (
	ErrExportNotFound = errors.New("export not found")
	ErrNotReady       = errors.New("module not ready")
	ErrInstanceClosed = errors.New("instance is closed")
)
