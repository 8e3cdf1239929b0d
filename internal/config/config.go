// Package config loads the groupbypass configuration.
//
// Values come from three layers, later layers winning: built-in defaults,
// the TOML file at [Path], and GROUPBYPASS_* environment variables. A .env
// file in the working directory is read into the environment first without
// replacing variables that are already set. Command-line flags are applied
// by the CLI on top of the result.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/hybs/groupbypass/pkg/panel"
	"github.com/hybs/groupbypass/pkg/retry"
)

const (
	appName    = "groupbypass"
	fileName   = "config.toml"
	envPrefix  = "GROUPBYPASS_"
	dotEnvFile = ".env"

	// DefaultAddr is the listen address of the HTTP API.
	DefaultAddr = "127.0.0.1:8188"
)

// Environment variables read by [ApplyEnv].
const (
	EnvRootLabel         = envPrefix + "ROOT_LABEL"
	EnvSyncInterval      = envPrefix + "SYNC_INTERVAL"
	EnvReadyAttempts     = envPrefix + "READY_ATTEMPTS"
	EnvReadyInitialDelay = envPrefix + "READY_INITIAL_DELAY"
	EnvServeAddr         = envPrefix + "SERVE_ADDR"
)

// Config holds all configuration options.
type Config struct {
	RootLabel    string      `toml:"root_label"`
	SyncInterval Duration    `toml:"sync_interval"`
	Ready        ReadyConfig `toml:"ready"`
	Serve        ServeConfig `toml:"serve"`
}

// ReadyConfig bounds the wait for a workflow to become listable.
type ReadyConfig struct {
	Attempts     int      `toml:"attempts"`
	InitialDelay Duration `toml:"initial_delay"`
}

// ServeConfig configures the HTTP API.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RootLabel:    panel.DefaultRootLabel,
		SyncInterval: Duration{panel.DefaultInterval},
		Ready: ReadyConfig{
			Attempts:     retry.DefaultAttempts,
			InitialDelay: Duration{retry.DefaultInitialDelay},
		},
		Serve: ServeConfig{Addr: DefaultAddr},
	}
}

// RetryPolicy returns the readiness wait as a retry policy.
func (c Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		Attempts:     c.Ready.Attempts,
		InitialDelay: c.Ready.InitialDelay.Duration,
		MaxDelay:     retry.DefaultMaxDelay,
	}
}

// Validate checks that every value is usable.
func (c Config) Validate() error {
	if c.RootLabel == "" {
		return errors.New("root_label: must not be empty")
	}
	if c.SyncInterval.Duration <= 0 {
		return fmt.Errorf("sync_interval: must be positive, got %s", c.SyncInterval)
	}
	if c.Ready.Attempts < 1 {
		return fmt.Errorf("ready.attempts: must be at least 1, got %d", c.Ready.Attempts)
	}
	if c.Ready.InitialDelay.Duration < 0 {
		return fmt.Errorf("ready.initial_delay: must not be negative, got %s", c.Ready.InitialDelay)
	}
	if c.Serve.Addr == "" {
		return errors.New("serve.addr: must not be empty")
	}
	return nil
}

// =============================================================================
// Loading
// =============================================================================

// Path returns the config file location using the XDG standard
// (~/.config/groupbypass/config.toml).
func Path() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load builds the configuration from defaults, the file at path and the
// environment. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := LoadDotEnv(dotEnvFile); err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv reads path into the process environment. Variables that are
// already set keep their value; a missing file is skipped.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with the GROUPBYPASS_* variables found by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvRootLabel); ok {
		cfg.RootLabel = v
	}
	if v, ok := lookup(EnvSyncInterval); ok {
		if err := cfg.SyncInterval.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvSyncInterval, err)
		}
	}
	if v, ok := lookup(EnvReadyAttempts); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvReadyAttempts, err)
		}
		cfg.Ready.Attempts = n
	}
	if v, ok := lookup(EnvReadyInitialDelay); ok {
		if err := cfg.Ready.InitialDelay.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvReadyInitialDelay, err)
		}
	}
	if v, ok := lookup(EnvServeAddr); ok {
		cfg.Serve.Addr = v
	}
	return nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}
