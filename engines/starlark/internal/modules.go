package internal

import (
	"maps"

	starlarkJSON "go.starlark.net/lib/json"
	starlarkMath "go.starlark.net/lib/math"
	starlarkTime "go.starlark.net/lib/time"
	starlarkLib "go.starlark.net/starlark"
)

// Module namespaces predeclared for every script, at compile time and at init time.
const (
	NamespaceJSON = "json"
	NamespaceMath = "math"
	NamespaceTime = "time"
)

// StarlarkModules returns a copy of the Starlark universe plus the json, math, and time modules.
func StarlarkModules() starlarkLib.StringDict {
	universe := maps.Clone(starlarkLib.Universe)
	universe[NamespaceJSON] = starlarkJSON.Module
	universe[NamespaceMath] = starlarkMath.Module
	universe[NamespaceTime] = starlarkTime.Module
	return universe
}
