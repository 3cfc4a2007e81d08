package helpers

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// WasmPathEnv overrides the search when set to the path of a built guest module.
const WasmPathEnv = "EDGEWORKER_WASM"

// wasmCandidates are relative to each search directory.
var wasmCandidates = []string{
	"main.wasm",
	"engines/extism/wasmdata/examples/main.wasm",
	"../engines/extism/wasmdata/examples/main.wasm",
	"../../engines/extism/wasmdata/examples/main.wasm",
	"../../../engines/extism/wasmdata/examples/main.wasm",
	"examples/main.wasm",
}

// FindWasmFile searches for the example guest module built from engines/extism/wasmdata/examples.
//
// Parameters:
//   - logger: Optional logger for verbose output
//   - searchDirs: Directories to search from; the working directory is used when empty
//
// Returns:
//   - Absolute path to the found WASM file
//   - Error listing every checked path when no file is found
func FindWasmFile(logger *slog.Logger, searchDirs ...string) (string, error) {
	if p := os.Getenv(WasmPathEnv); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("%s=%s: %w", WasmPathEnv, p, err)
		}
		return filepath.Abs(p)
	}

	if len(searchDirs) == 0 {
		searchDirs = []string{"."}
	}

	if logger != nil {
		logger.Debug("Searching for WASM file", "dirs", searchDirs)
	}

	checkedPaths := []string{}
	for _, dir := range searchDirs {
		for _, candidate := range wasmCandidates {
			path := filepath.Join(dir, candidate)
			absPath, err := filepath.Abs(path)
			if err != nil {
				absPath = path
			}
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				if logger != nil {
					logger.Debug("Found WASM file", "path", absPath)
				}
				return absPath, nil
			}
			checkedPaths = append(checkedPaths, absPath)
		}
	}

	var b strings.Builder
	b.WriteString("WASM file not found in any of the expected locations.\n\n")
	b.WriteString("Run 'make build' in engines/extism/wasmdata/examples, or set " + WasmPathEnv + ".\n")
	b.WriteString("Checked:\n")
	for _, path := range checkedPaths {
		b.WriteString("   - " + path + "\n")
	}
	return "", fmt.Errorf("%s", b.String())
}
