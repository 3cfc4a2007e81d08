package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robbyt/go-edgeworker"
	"github.com/robbyt/go-edgeworker/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edgeworker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, edgeworker.EngineExtism, cfg.Module.Engine)
	assert.True(t, cfg.Module.WASI)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
listen: ":8081"
admin_listen: ""
shutdown_timeout: 3s
log:
  level: debug
  format: json
module:
  engine: starlark
  source: /srv/worker.star
  timeout: 250ms
  headers:
    Authorization: Bearer ${env.EDGEWORKER_TEST_TOKEN:-none}
routes:
  - path: /
    export: greet
    shape: raw
  - path: /game
    export: prototype
    content_type: application/json
    shape: json-wrap
    key: game
`)
	t.Setenv("EDGEWORKER_TEST_TOKEN", "secret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Listen)
	assert.Empty(t, cfg.AdminListen)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, Log{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, edgeworker.EngineStarlark, cfg.Module.Engine)
	assert.Equal(t, "/srv/worker.star", cfg.Module.Source)
	assert.Equal(t, 250*time.Millisecond, cfg.Module.Timeout)
	assert.True(t, cfg.Module.WASI, "unset fields keep their defaults")
	assert.Equal(t, "Bearer secret", cfg.Module.Headers["Authorization"])
	assert.Equal(t, router.Table{
		{Path: "/", Export: "greet", Shape: router.ShapeRaw},
		{Path: "/game", Export: "prototype", ContentType: "application/json", Shape: router.ShapeJSONWrap, Key: "game"},
	}, cfg.Routes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "listen: \":8081\"\n")
	t.Setenv(EnvListen, ":7000")
	t.Setenv(EnvEngine, edgeworker.EngineStarlark)
	t.Setenv(EnvSource, "https://modules.example.com/worker.star")
	t.Setenv(EnvTimeout, "2s")
	t.Setenv(EnvWASI, "false")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, edgeworker.EngineStarlark, cfg.Module.Engine)
	assert.Equal(t, "https://modules.example.com/worker.star", cfg.Module.Source)
	assert.Equal(t, 2*time.Second, cfg.Module.Timeout)
	assert.False(t, cfg.Module.WASI)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "listen: [\n"))
		require.Error(t, err)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := Load(writeConfig(t, "listne: \":80\"\n"))
		require.Error(t, err)
	})

	t.Run("bad timeout env", func(t *testing.T) {
		t.Setenv(EnvTimeout, "soon")
		_, err := Load("")
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("bad wasi env", func(t *testing.T) {
		t.Setenv(EnvWASI, "maybe")
		_, err := Load("")
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("empty file keeps defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, ""))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "empty listen", modify: func(c *Config) { c.Listen = "" }},
		{name: "same listeners", modify: func(c *Config) { c.AdminListen = c.Listen }},
		{name: "negative shutdown", modify: func(c *Config) { c.ShutdownTimeout = -time.Second }},
		{name: "negative module timeout", modify: func(c *Config) { c.Module.Timeout = -time.Second }},
		{name: "unknown engine", modify: func(c *Config) { c.Module.Engine = "lua" }},
		{name: "bad route", modify: func(c *Config) {
			c.Routes = router.Table{{Path: "nope", Export: "greet", Shape: router.ShapeRaw}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.modify(cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	require.NoError(t, Default().Validate())

	t.Run("ephemeral ports may repeat", func(t *testing.T) {
		t.Parallel()
		for _, addr := range []string{":0", "127.0.0.1:0"} {
			cfg := Default()
			cfg.Listen = addr
			cfg.AdminListen = addr
			require.NoError(t, cfg.Validate(), addr)
		}
	})

	t.Run("risor engine", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Module.Engine = edgeworker.EngineRisor
		require.NoError(t, cfg.Validate())
	})
}
