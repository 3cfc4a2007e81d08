// Package wasmdata holds the example guest module used by integration tests.
//
// The guest is built from examples/main.go with `make` in the examples directory, which writes main.wasm
// next to the sources. Tests locate it with helpers.FindWasmFile and skip when it has not been built.
package wasmdata

// Exports provided by the example guest.
const (
	// EntrypointGreet returns Greeting as plain text.
	EntrypointGreet = "greet"

	// EntrypointPrototype returns a game object as JSON: {"id": 0}
	EntrypointPrototype = "prototype"

	// EntrypointSlots deals SlotCount values in 0-9 and returns them joined by "|", e.g. "3|0|9|9|1|4"
	EntrypointSlots = "slots"
)

// Greeting is the text returned by the greet export.
const Greeting = "Hello, edgeworker!"

// SlotCount is the number of values in one slots deal.
const SlotCount = 6
