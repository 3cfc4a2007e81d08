// Package adapter runs the router on a hosting runtime: a plain HTTP server or AWS Lambda.
package adapter

import "context"

// Adapter represents a runtime adapter for the worker
type Adapter interface {
	// Start runs the adapter until ctx is cancelled or the runtime fails.
	Start(ctx context.Context) error
}
