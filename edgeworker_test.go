package edgeworker_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/robbyt/go-edgeworker"
	"github.com/robbyt/go-edgeworker/engines/extism"
	"github.com/robbyt/go-edgeworker/engines/risor"
	"github.com/robbyt/go-edgeworker/engines/starlark"
	"github.com/robbyt/go-edgeworker/internal/helpers"
	"github.com/robbyt/go-edgeworker/module"
	"github.com/robbyt/go-edgeworker/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const starlarkWorker = `
def greet():
    return "hello"

def prototype():
    return {"id": 7}

def slots():
    return "1|1|1|1|1|1"
`

const risorWorker = `
func greet() {
    return "hello"
}

func prototype() {
    return {"id": 7}
}

func slots() {
    return "1|1|1|1|1|1"
}
`

var discard = slog.NewTextHandler(io.Discard, nil)

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestFromStarlarkString(t *testing.T) {
	t.Parallel()
	mod, err := edgeworker.FromStarlarkString(starlarkWorker, starlark.WithLogHandler(discard))
	require.NoError(t, err)

	h, err := edgeworker.NewHandler(mod, router.WithLogHandler(discard))
	require.NoError(t, err)

	rec := serve(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())

	rec = serve(t, h, "/prototype")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"game":{"id":7}}`, rec.Body.String())

	rec = serve(t, h, "/slots")
	assert.Equal(t, "1|1|1|1|1|1", rec.Body.String())

	rec = serve(t, h, "/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", rec.Body.String())

	require.NoError(t, mod.Close(context.Background()))
}

func TestFromStarlarkFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "worker.star")
	require.NoError(t, os.WriteFile(path, []byte(starlarkWorker), 0o644))

	mod, err := edgeworker.FromStarlarkFile(path, starlark.WithLogHandler(discard))
	require.NoError(t, err)
	require.NoError(t, mod.Warm(context.Background()))

	_, err = edgeworker.FromStarlarkFile("relative.star")
	require.Error(t, err)
}

func TestFromRisorString(t *testing.T) {
	t.Parallel()
	mod, err := edgeworker.FromRisorString(risorWorker, risor.WithLogHandler(discard))
	require.NoError(t, err)

	h, err := edgeworker.NewHandler(mod, router.WithLogHandler(discard))
	require.NoError(t, err)

	rec := serve(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())

	rec = serve(t, h, "/prototype")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"game":{"id":7}}`, rec.Body.String())

	rec = serve(t, h, "/slots")
	assert.Equal(t, "1|1|1|1|1|1", rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Type"))

	require.NoError(t, mod.Close(context.Background()))
}

func TestFromRisorFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "worker.risor")
	require.NoError(t, os.WriteFile(path, []byte(risorWorker), 0o644))

	mod, err := edgeworker.FromRisorFile(path, risor.WithLogHandler(discard))
	require.NoError(t, err)
	require.NoError(t, mod.Warm(context.Background()))

	_, err = edgeworker.FromRisorFile("relative.risor")
	require.Error(t, err)
}

func TestNewModule(t *testing.T) {
	t.Parallel()

	mod, err := edgeworker.NewModule(edgeworker.EngineStarlark, []byte(starlarkWorker), discard)
	require.NoError(t, err)
	inst, err := mod.Ready(context.Background())
	require.NoError(t, err)
	greeting, err := module.Greet(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, "hello", greeting)

	rmod, err := edgeworker.NewModule(edgeworker.EngineRisor, []byte(risorWorker), discard)
	require.NoError(t, err)
	assert.IsType(t, &risor.Module{}, rmod)
	require.NoError(t, rmod.Warm(context.Background()))

	_, err = edgeworker.NewModule("lua", []byte(starlarkWorker), discard)
	require.Error(t, err)

	_, err = edgeworker.NewModule(edgeworker.EngineExtism, 42, discard)
	require.Error(t, err)

	ext, err := edgeworker.NewModule(edgeworker.EngineExtism, []byte("\x00asm\x01\x00\x00\x00"), nil)
	require.NoError(t, err)
	assert.IsType(t, &extism.Module{}, ext)
}

func TestFromExtism(t *testing.T) {
	t.Parallel()

	_, err := edgeworker.FromExtismBytes(nil)
	require.Error(t, err)

	_, err = edgeworker.FromExtismFile("main.wasm")
	require.Error(t, err, "relative paths are rejected")

	_, err = edgeworker.FromExtismLoader(nil)
	require.ErrorIs(t, err, extism.ErrLoaderNil)

	path, err := helpers.FindWasmFile(nil, ".")
	if err != nil {
		t.Skip("example guest module not built")
	}

	mod, err := edgeworker.FromExtismFile(path, extism.WithLogHandler(discard))
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, mod.Close(context.Background()))
	}()

	h, err := edgeworker.NewHandler(mod, router.WithLogHandler(discard))
	require.NoError(t, err)

	rec := serve(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello, edgeworker!", rec.Body.String())

	rec = serve(t, h, "/prototype")
	assert.JSONEq(t, `{"game":{"id":0}}`, rec.Body.String())
}
