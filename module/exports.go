package module

import (
	"bytes"
	"context"
	"encoding/json"
)

// Greet calls the greet export and returns its text.
func Greet(ctx context.Context, inst Instance) (string, error) {
	out, err := inst.Call(ctx, ExportGreet)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Prototype calls the prototype export and decodes its JSON value.
// Output that is not valid JSON is returned as a string.
func Prototype(ctx context.Context, inst Instance) (any, error) {
	out, err := inst.Call(ctx, ExportPrototype)
	if err != nil {
		return nil, err
	}
	return DecodeValue(out), nil
}

// Slots calls the slots export and returns its raw output.
func Slots(ctx context.Context, inst Instance) ([]byte, error) {
	return inst.Call(ctx, ExportSlots)
}

// DecodeValue interprets export output as a JSON value, keeping numbers as json.Number.
// Empty output decodes to nil; anything that is not a single JSON value is returned as a string.
func DecodeValue(out []byte) any {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil
	}

	var v any
	d := json.NewDecoder(bytes.NewReader(trimmed))
	d.UseNumber()
	if err := d.Decode(&v); err != nil || d.More() {
		return string(out)
	}
	return v
}
