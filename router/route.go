package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/robbyt/go-edgeworker/module"
)

// Shape is the rule that turns an export's output into a response body.
type Shape string

const (
	// ShapeRaw uses the export output as the body, unchanged.
	ShapeRaw Shape = "raw"
	// ShapeJSONWrap wraps the export output as {"<key>": <value>}.
	ShapeJSONWrap Shape = "json-wrap"
)

// ContentTypeJSON is the content type of json-wrap responses in the default table.
const ContentTypeJSON = "application/json"

// Route maps one exact path to one module export.
type Route struct {
	Path        string `yaml:"path"`
	Export      string `yaml:"export"`
	ContentType string `yaml:"content_type"`
	Shape       Shape  `yaml:"shape"`
	Key         string `yaml:"key"`
}

// Validate checks that the route can be mounted and shaped.
func (r Route) Validate() error {
	if !strings.HasPrefix(r.Path, "/") {
		return fmt.Errorf("%w: path %q must start with /", ErrInvalidRoute, r.Path)
	}
	// chi treats these as pattern syntax
	if strings.ContainsAny(r.Path, "{}*") {
		return fmt.Errorf("%w: path %q contains a pattern character", ErrInvalidRoute, r.Path)
	}
	if r.Export == "" {
		return fmt.Errorf("%w: path %q has no export", ErrInvalidRoute, r.Path)
	}
	switch r.Shape {
	case ShapeRaw:
	case ShapeJSONWrap:
		if r.Key == "" {
			return fmt.Errorf("%w: path %q uses %s without a key", ErrInvalidRoute, r.Path, ShapeJSONWrap)
		}
	default:
		return fmt.Errorf("%w: path %q has unknown shape %q", ErrInvalidRoute, r.Path, r.Shape)
	}
	return nil
}

// ShapeBody builds the response body from the export output.
//
// For json-wrap, output that is a JSON value is embedded as-is, empty output becomes null,
// and anything else is embedded as a JSON string.
func (r Route) ShapeBody(out []byte) ([]byte, error) {
	if r.Shape != ShapeJSONWrap {
		return out, nil
	}

	value := json.RawMessage("null")
	trimmed := bytes.TrimSpace(out)
	switch {
	case len(trimmed) == 0:
	case json.Valid(trimmed):
		value = trimmed
	default:
		s, err := json.Marshal(string(out))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrShapeFailed, err)
		}
		value = s
	}

	body, err := json.Marshal(map[string]json.RawMessage{r.Key: value})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShapeFailed, err)
	}
	return body, nil
}

// Table is the ordered set of routes served by a Router.
type Table []Route

// DefaultTable returns the routes for the greet, prototype, and slots exports.
func DefaultTable() Table {
	return Table{
		{Path: "/", Export: module.ExportGreet, Shape: ShapeRaw},
		{Path: "/prototype", Export: module.ExportPrototype, ContentType: ContentTypeJSON, Shape: ShapeJSONWrap, Key: "game"},
		{Path: "/slots", Export: module.ExportSlots, Shape: ShapeRaw},
	}
}

// Validate checks every route and rejects repeated paths.
func (t Table) Validate() error {
	seen := make(map[string]struct{}, len(t))
	for _, r := range t {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.Path]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRoute, r.Path)
		}
		seen[r.Path] = struct{}{}
	}
	return nil
}

// Exports returns the distinct export names used by the table, in table order.
func (t Table) Exports() []string {
	var exports []string
	seen := make(map[string]struct{}, len(t))
	for _, r := range t {
		if _, ok := seen[r.Export]; ok {
			continue
		}
		seen[r.Export] = struct{}{}
		exports = append(exports, r.Export)
	}
	return exports
}
