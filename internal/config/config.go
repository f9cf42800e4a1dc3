// Package config loads hostsh settings from a YAML file and environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mfateev/hostsh/internal/execenv"
	"github.com/mfateev/hostsh/internal/sandbox"
)

// Config defines runtime settings for hostsh.
type Config struct {
	Sandbox sandbox.Detection `yaml:"sandbox"`
	Bridge  BridgeConfig      `yaml:"bridge"`
	Log     LogConfig         `yaml:"log"`

	// Env filters the environment of every command the CLI runs.
	Env *execenv.Policy `yaml:"env,omitempty"`
}

// BridgeConfig holds the launcher used to reach the host from a sandbox.
type BridgeConfig struct {
	Prefix []string `yaml:"prefix"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sandbox: sandbox.DefaultDetection(),
		Bridge:  BridgeConfig{Prefix: append([]string(nil), sandbox.DefaultBridgePrefix...)},
		Log:     LogConfig{Level: "info", Format: "auto"},
	}
}

// Load reads path (skipped when empty) over the defaults, then applies
// HOSTSH_* overrides seen through lookup. A nil lookup reads the process
// environment.
func Load(path string, lookup sandbox.LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v, ok := lookup("HOSTSH_LOG_LEVEL"); ok && v != "" {
		cfg.Log.Level = v
	}
	if v, ok := lookup("HOSTSH_LOG_FORMAT"); ok && v != "" {
		cfg.Log.Format = v
	}
	if v, ok := lookup("HOSTSH_BRIDGE"); ok && v != "" {
		cfg.Bridge.Prefix = strings.Fields(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the detector and bridge are usable.
func (c *Config) Validate() error {
	if c.Sandbox.Var == "" {
		return errors.New("sandbox.env_var must not be empty")
	}
	if len(c.Bridge.Prefix) == 0 {
		return errors.New("bridge.prefix must not be empty")
	}
	return nil
}

// Sandboxed evaluates the sandbox detector once.
func (c *Config) Sandboxed(lookup sandbox.LookupFunc) bool {
	return sandbox.Detect(lookup, c.Sandbox)
}

// DefaultPath returns the config file location: HOSTSH_CONFIG if set,
// otherwise hostsh/config.yaml under the user config directory when that
// file exists, otherwise "".
func DefaultPath() string {
	if path := os.Getenv("HOSTSH_CONFIG"); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(dir, "hostsh", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
