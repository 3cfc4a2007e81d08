package internal

import (
	"encoding/json"
	"errors"
	"fmt"

	rObj "github.com/risor-io/risor/object"
)

// ErrUnsupportedValue is returned for values that have no byte or JSON form.
var ErrUnsupportedValue = errors.New("unsupported Risor value")

// ExportOutput renders an export's return value as bytes: strings and byte slices are returned as-is,
// every other value is encoded as JSON from its Go form. A nil result encodes as null.
func ExportOutput(obj rObj.Object) ([]byte, error) {
	if obj == nil {
		return []byte("null"), nil
	}

	switch obj.Type() {
	case "function", "builtin", "module":
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, obj.Type())
	}

	switch v := obj.Interface().(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		out, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrUnsupportedValue, obj.Type(), err)
		}
		return out, nil
	}
}

// IsError reports whether obj is a Risor error value.
func IsError(obj rObj.Object) bool {
	return obj != nil && obj.Type() == "error"
}
