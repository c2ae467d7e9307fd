// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Turnstile
// components.
//
// Configuration is loaded from a single YAML file specified by:
//   - TURNSTILE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. A ledger deployment
// should be fully described by one auditable file with no hidden
// overrides. The only expansion performed is ${HOME} and similar
// variables in paths, for portability across machines.
package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/turnstile-systems/turnstile/lib/ref"
)

// Config describes one ledger deployment.
type Config struct {
	// SocketPath is the Unix socket the daemon serves and the CLI
	// calls. Filesystem permissions on this path are the access
	// control.
	SocketPath string `yaml:"socket_path"`

	// DatabasePath is the SQLite file holding the registry and the
	// audit journal.
	DatabasePath string `yaml:"database_path"`

	// Admin is the sole identity authorized to mint and void. Fixed
	// at first open of the database; the daemon refuses to start if
	// it disagrees with an existing database.
	Admin ref.AccountID `yaml:"admin"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration before any file is applied.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	stateDir := filepath.Join(homeDir, ".local", "state", "turnstile")

	return &Config{
		SocketPath:   "/run/turnstile/ledger.sock",
		DatabasePath: filepath.Join(stateDir, "ledger.db"),
		LogLevel:     "info",
	}
}

// Load loads configuration from the TURNSTILE_CONFIG environment
// variable. Fails if the variable is not set; there is no discovery.
func Load() (*Config, error) {
	configPath := os.Getenv("TURNSTILE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("TURNSTILE_CONFIG environment variable not set; " +
			"set it to the path of your turnstile.yaml config file, or use --config")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The file
// is the single source of truth: environment variables never
// override its values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.SocketPath = os.ExpandEnv(cfg.SocketPath)
	cfg.DatabasePath = os.ExpandEnv(cfg.DatabasePath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is complete and coherent.
func (c *Config) Validate() error {
	if c.SocketPath == "" {
		return fmt.Errorf("socket_path is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.Admin.IsZero() {
		return fmt.Errorf("admin is required")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a config log level to its slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log_level %q (want debug, info, warn, or error)", level)
}
