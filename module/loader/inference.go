package loader

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
)

// InferLoader picks a loader for input:
//   - string: http/https URL -> FromHTTP, file:// URL or path -> FromDisk (relative paths are made absolute)
//   - []byte: FromBytes
//   - io.Reader: read fully into FromBytes
//   - Loader: returned as-is
func InferLoader(input any) (Loader, error) {
	switch v := input.(type) {
	case Loader:
		return v, nil
	case string:
		return inferFromString(v)
	case []byte:
		return NewFromBytes(v)
	case io.Reader:
		content, err := io.ReadAll(v)
		if err != nil {
			return nil, fmt.Errorf("failed to read from reader: %w", err)
		}
		return NewFromBytes(content)
	default:
		return nil, fmt.Errorf("unsupported input type: %T", input)
	}
}

func inferFromString(input string) (Loader, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: empty string input", ErrModuleUnavailable)
	}

	if parsed, err := url.Parse(input); err == nil && parsed.Scheme != "" && len(parsed.Scheme) > 1 {
		switch parsed.Scheme {
		case "http", "https":
			return NewFromHTTP(input)
		case "file":
			return diskFromPath(parsed.Path)
		default:
			return nil, fmt.Errorf("%w: %s", ErrSchemeUnsupported, parsed.Scheme)
		}
	}

	return diskFromPath(input)
}

func diskFromPath(path string) (Loader, error) {
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve relative path %q: %w", path, err)
		}
		path = absPath
	}
	return NewFromDisk(path)
}
