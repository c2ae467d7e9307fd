// Copyright 2026 The Turnstile Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "turnstile.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
socket_path: /run/test/ledger.sock
database_path: /var/lib/test/ledger.db
admin: admin@main
log_level: debug
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.SocketPath != "/run/test/ledger.sock" {
		t.Errorf("socket_path = %q", cfg.SocketPath)
	}
	if cfg.DatabasePath != "/var/lib/test/ledger.db" {
		t.Errorf("database_path = %q", cfg.DatabasePath)
	}
	if cfg.Admin.String() != "admin@main" {
		t.Errorf("admin = %q", cfg.Admin)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
}

func TestLoadFileDefaults(t *testing.T) {
	path := writeConfig(t, `
admin: admin@main
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.SocketPath == "" || cfg.DatabasePath == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log_level = %q, want info", cfg.LogLevel)
	}
}

func TestLoadFileRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
admin: admin@main
socekt_path: /run/test/ledger.sock
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("misspelled field should be rejected")
	}
}

func TestLoadFileRequiresAdmin(t *testing.T) {
	path := writeConfig(t, `
socket_path: /run/test/ledger.sock
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("config without admin should be rejected")
	}
}

func TestLoadFileRejectsBadAdmin(t *testing.T) {
	path := writeConfig(t, `
admin: "not a valid identity"
`)
	if _, err := LoadFile(path); err == nil {
		t.Fatal("malformed admin should be rejected")
	}
}

func TestLoadFileExpandsVariables(t *testing.T) {
	t.Setenv("TEST_LEDGER_DIR", "/srv/ledger")
	path := writeConfig(t, `
admin: admin@main
database_path: ${TEST_LEDGER_DIR}/ledger.db
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.DatabasePath != "/srv/ledger/ledger.db" {
		t.Errorf("database_path = %q", cfg.DatabasePath)
	}
}

func TestLoadRequiresEnvVar(t *testing.T) {
	t.Setenv("TURNSTILE_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load without TURNSTILE_CONFIG should fail")
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel(verbose) should fail")
	}
}
