package internal

import (
	"encoding/json"
	"fmt"

	starlarkLib "go.starlark.net/starlark"
)

// ConvertStarlarkValueToInterface converts a Starlark value to a Go value that encoding/json can marshal.
func ConvertStarlarkValueToInterface(v starlarkLib.Value) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch v := v.(type) {
	case starlarkLib.NoneType:
		return nil, nil
	case starlarkLib.Bool:
		return bool(v), nil
	case starlarkLib.Int:
		if i, ok := v.Int64(); ok {
			return i, nil
		}
		// too large for int64, keep every digit
		return json.Number(v.BigInt().String()), nil
	case starlarkLib.Float:
		return float64(v), nil
	case starlarkLib.String:
		return string(v), nil
	case starlarkLib.Bytes:
		return string(v), nil
	case *starlarkLib.List:
		return convertIterable(v, v.Len())
	case starlarkLib.Tuple:
		return convertIterable(v, v.Len())
	case *starlarkLib.Dict:
		dict := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			k, val := item[0], item[1]

			// JSON objects need string keys
			key, ok := starlarkLib.AsString(k)
			if !ok {
				key = k.String()
			}

			vv, err := ConvertStarlarkValueToInterface(val)
			if err != nil {
				return nil, fmt.Errorf("failed to convert dict value for key %q: %w", key, err)
			}
			dict[key] = vv
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported Starlark type %s", v.Type())
	}
}

func convertIterable(v starlarkLib.Iterable, n int) ([]any, error) {
	list := make([]any, 0, n)
	iter := v.Iterate()
	defer iter.Done()

	var elem starlarkLib.Value
	for iter.Next(&elem) {
		converted, err := ConvertStarlarkValueToInterface(elem)
		if err != nil {
			return nil, fmt.Errorf("failed to convert list element: %w", err)
		}
		list = append(list, converted)
	}
	return list, nil
}

// ExportOutput renders an export's return value as bytes: strings and bytes are returned as-is,
// every other value is encoded as JSON.
func ExportOutput(v starlarkLib.Value) ([]byte, error) {
	switch v := v.(type) {
	case starlarkLib.String:
		return []byte(v), nil
	case starlarkLib.Bytes:
		return []byte(v), nil
	}

	goVal, err := ConvertStarlarkValueToInterface(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(goVal)
}
