// Package module defines the contract between the request router and the external computation module.
//
// A Module is an opaque, precompiled collaborator: the router only asks it to become ready and then calls
// one named export with no arguments. Return values cross the boundary as bytes. Text exports return their
// text; structured exports return JSON.
package module

import (
	"context"
)

// Export names served by the default route table.
const (
	ExportGreet     = "greet"
	ExportPrototype = "prototype"
	ExportSlots     = "slots"
)

// Module is the process-wide handle to the external module.
type Module interface {
	// Ready loads or instantiates the module and returns an instance whose exports may be called.
	// It is awaited before every export call and must be safe to call repeatedly and concurrently.
	Ready(ctx context.Context) (Instance, error)
}

// Instance is a ready module. It is used by a single request and closed when that request is done.
type Instance interface {
	Call(ctx context.Context, export string) ([]byte, error)
	Close(ctx context.Context) error
}
