// Package config loads the edge worker's settings from a YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/robbyt/go-edgeworker"
	"github.com/robbyt/go-edgeworker/router"
	"gopkg.in/yaml.v3"
)


// Environment variables that override the file.
const (
	EnvListen      = "EDGEWORKER_LISTEN"
	EnvAdminListen = "EDGEWORKER_ADMIN_LISTEN"
	EnvLogLevel    = "EDGEWORKER_LOG_LEVEL"
	EnvLogFormat   = "EDGEWORKER_LOG_FORMAT"
	EnvEngine      = "EDGEWORKER_ENGINE"
	EnvSource      = "EDGEWORKER_MODULE"
	EnvTimeout     = "EDGEWORKER_TIMEOUT"
	EnvWASI        = "EDGEWORKER_WASI"
	EnvCacheDir    = "EDGEWORKER_CACHE_DIR"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Log selects the root log handler.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Module describes where the external module comes from and how it runs.
type Module struct {
	Engine   string            `yaml:"engine"`
	Source   string            `yaml:"source"`
	WASI     bool              `yaml:"wasi"`
	Timeout  time.Duration     `yaml:"timeout"`
	CacheDir string            `yaml:"cache_dir"`
	Headers  map[string]string `yaml:"headers"`
}

// Config is the worker configuration.
type Config struct {
	Listen          string        `yaml:"listen"`
	AdminListen     string        `yaml:"admin_listen"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Log             Log           `yaml:"log"`
	Module          Module        `yaml:"module"`
	Routes          router.Table  `yaml:"routes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:          ":8080",
		AdminListen:     ":9090",
		ShutdownTimeout: 10 * time.Second,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Module: Module{
			Engine:  edgeworker.EngineExtism,
			WASI:    true,
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads path on top of the defaults, then applies environment overrides and validates.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		if err := Parse(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg after substituting ${env.VAR} references.
func Parse(data []byte, cfg *Config) error {
	data = []byte(substituteEnvVars(string(data)))

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		// an empty document leaves the defaults in place
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}
	return nil
}

// substituteEnvVars replaces ${env.VAR} and ${env.VAR:-default} with environment variable values
func substituteEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{env\.([A-Z0-9_]+)(:-([^}]+))?\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		groups := re.FindStringSubmatch(match)
		envVar := groups[1]
		defaultValue := groups[3]
		if value, exists := os.LookupEnv(envVar); exists {
			return value
		}
		return defaultValue
	})
}

func (c *Config) applyEnv() error {
	strOverrides := map[string]*string{
		EnvListen:      &c.Listen,
		EnvAdminListen: &c.AdminListen,
		EnvLogLevel:    &c.Log.Level,
		EnvLogFormat:   &c.Log.Format,
		EnvEngine:      &c.Module.Engine,
		EnvSource:      &c.Module.Source,
		EnvCacheDir:    &c.Module.CacheDir,
	}
	for env, field := range strOverrides {
		if v, ok := os.LookupEnv(env); ok {
			*field = v
		}
	}

	if v, ok := os.LookupEnv(EnvTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, EnvTimeout, err)
		}
		c.Module.Timeout = d
	}
	if v, ok := os.LookupEnv(EnvWASI); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, EnvWASI, err)
		}
		c.Module.WASI = b
	}
	return nil
}

// Validate checks the configuration for values the worker cannot start with.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("%w: listen address is empty", ErrInvalidConfig)
	}
	if sameListener(c.Listen, c.AdminListen) {
		return fmt.Errorf("%w: admin_listen must differ from listen", ErrInvalidConfig)
	}
	if c.ShutdownTimeout < 0 || c.Module.Timeout < 0 {
		return fmt.Errorf("%w: timeouts cannot be negative", ErrInvalidConfig)
	}
	switch c.Module.Engine {
	case edgeworker.EngineExtism, edgeworker.EngineStarlark, edgeworker.EngineRisor:
	default:
		return fmt.Errorf("%w: unknown module engine %q", ErrInvalidConfig, c.Module.Engine)
	}
	if len(c.Routes) > 0 {
		if err := c.Routes.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

// sameListener reports whether both addresses name the same fixed port. Port 0 asks the kernel for a
// distinct free port on every listen, so it never conflicts.
func sameListener(listen, admin string) bool {
	if admin == "" || admin != listen {
		return false
	}
	if _, port, err := net.SplitHostPort(listen); err == nil && port == "0" {
		return false
	}
	return true
}
