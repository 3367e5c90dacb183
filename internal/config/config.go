// Package config loads and stores CLI configuration in the XDG config dir.
// Values are layered with koanf: defaults, then config.yaml, then NLSQL_* environment
// variables, then explicitly set command-line flags.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"nlsql/cli/internal/xdg"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "NLSQL_"

// FileName is the config file name inside the XDG config directory.
const FileName = "config.yaml"

// Defaults.
const (
	DefaultBackendURL = "http://127.0.0.1:8000"
	DefaultTimeout    = 60 * time.Second
	DefaultLogLevel   = "info"
	DefaultFormat     = "table"
)

// Formats lists the accepted output formats.
var Formats = []string{"table", "json", "csv", "markdown"}

// LogLevels lists the accepted log levels.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Keys lists the settable configuration keys.
var Keys = []string{"backend_url", "timeout", "log_level", "format", "history_file"}

// Config holds non-sensitive CLI settings.
type Config struct {
	BackendURL  string        `koanf:"backend_url"`
	Timeout     time.Duration `koanf:"timeout"`
	LogLevel    string        `koanf:"log_level"`
	Format      string        `koanf:"format"`
	HistoryFile string        `koanf:"history_file"`
}

// Path returns the path to the config file.
func Path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

func defaults() map[string]any {
	return map[string]any{
		"backend_url":  DefaultBackendURL,
		"timeout":      DefaultTimeout.String(),
		"log_level":    DefaultLogLevel,
		"format":       DefaultFormat,
		"history_file": "",
	}
}

// Load reads configuration; a missing file yields defaults. flags may be nil.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func Load(flags *pflag.FlagSet) (Config, error) {
	p, err := Path()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(p, flags)
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	// NLSQL_BACKEND_URL -> backend_url
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	c.normalize()

	if c.HistoryFile == "" {
		if dir, err := xdg.StateDir(); err == nil {
			c.HistoryFile = filepath.Join(dir, "shell_history")
		}
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) normalize() {
	c.BackendURL = strings.TrimRight(strings.TrimSpace(c.BackendURL), "/")
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
}

// Validate checks the settings that would otherwise fail late at request time.
func (c Config) Validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid backend_url %q: expected an http(s) URL", c.BackendURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid timeout %s: must be positive", c.Timeout)
	}
	if !contains(Formats, c.Format) {
		return fmt.Errorf("invalid format %q: expected one of %s", c.Format, strings.Join(Formats, ", "))
	}
	if !contains(LogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q: expected one of %s", c.LogLevel, strings.Join(LogLevels, ", "))
	}
	return nil
}

// Set persists a single key into the config file at path, leaving other keys untouched.
// The resulting configuration is validated before anything is written.
func Set(path, key, value string) error {
	key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
	if !contains(Keys, key) {
		return fmt.Errorf("unknown config key %q: expected one of %s", key, strings.Join(Keys, ", "))
	}

	k := koanf.New(".")
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
	}
	if err := k.Set(key, value); err != nil {
		return err
	}

	// Validate the merged result against defaults.
	merged := koanf.New(".")
	if err := merged.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return err
	}
	if err := merged.Merge(k); err != nil {
		return err
	}
	var c Config
	if err := merged.Unmarshal("", &c); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return err
	}

	b, err := k.Marshal(yaml.Parser())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// AsMap returns the settings keyed like the config file, for display.
func (c Config) AsMap() map[string]string {
	return map[string]string{
		"backend_url":  c.BackendURL,
		"timeout":      c.Timeout.String(),
		"log_level":    c.LogLevel,
		"format":       c.Format,
		"history_file": c.HistoryFile,
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
