// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

store:
  path: "./test.db"

auth:
  jwt_secret: "test-secret"
  require_session_for_list: true

sessions:
  ttl: "30m"

ratelimit:
  limit: 60
  window: "1m"

calls:
  timeout: "30s"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("Server.HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, "0.0.0.0:8080")
	}
	if cfg.Store.Path != "./test.db" {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, "./test.db")
	}
	if cfg.Auth.JWTSecret != "test-secret" {
		t.Errorf("Auth.JWTSecret = %q, want %q", cfg.Auth.JWTSecret, "test-secret")
	}
	if !cfg.Auth.RequireSessionForList {
		t.Error("Auth.RequireSessionForList = false, want true")
	}
	if cfg.Sessions.TTL != 30*time.Minute {
		t.Errorf("Sessions.TTL = %v, want %v", cfg.Sessions.TTL, 30*time.Minute)
	}
	if cfg.RateLimit.Limit != 60 {
		t.Errorf("RateLimit.Limit = %d, want 60", cfg.RateLimit.Limit)
	}
	if cfg.RateLimit.Window != time.Minute {
		t.Errorf("RateLimit.Window = %v, want %v", cfg.RateLimit.Window, time.Minute)
	}
	if cfg.Calls.Timeout != 30*time.Second {
		t.Errorf("Calls.Timeout = %v, want %v", cfg.Calls.Timeout, 30*time.Second)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "secret-from-env")

	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
store:
  path: "./test.db"
auth:
  jwt_secret: "${TEST_JWT_SECRET}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.JWTSecret != "secret-from-env" {
		t.Errorf("Auth.JWTSecret = %q, want %q", cfg.Auth.JWTSecret, "secret-from-env")
	}
}

func TestLoad_UnsetEnvVarFailsValidation(t *testing.T) {
	os.Unsetenv("UNSET_VAR_FOR_TEST")

	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
store:
  path: "./test.db"
auth:
  jwt_secret: "${UNSET_VAR_FOR_TEST}"
`)

	// An unset env var expands to empty, which the required-field check catches
	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for empty jwt_secret, got nil")
	}
}

func TestLoad_DurationParsing(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
store:
  path: "./test.db"
auth:
  jwt_secret: "s"
sessions:
  ttl: "1h30m"
ratelimit:
  limit: 10
  window: "90s"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := 90 * time.Minute; cfg.Sessions.TTL != want {
		t.Errorf("Sessions.TTL = %v, want %v", cfg.Sessions.TTL, want)
	}
	if want := 90 * time.Second; cfg.RateLimit.Window != want {
		t.Errorf("RateLimit.Window = %v, want %v", cfg.RateLimit.Window, want)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr "missing colon"
`)

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	configPath := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"
store:
  path: "./test.db"
auth:
  jwt_secret: "s"
sessions:
  ttl: "invalid-duration"
`)

	if _, err := Load(configPath); err == nil {
		t.Error("Load() expected error for invalid duration, got nil")
	}
}

func TestLoad_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		wantErrSubstr string
	}{
		{
			name: "missing http_addr",
			configContent: `
server:
  http_addr: ""
store:
  path: "./test.db"
auth:
  jwt_secret: "s"
`,
			wantErrSubstr: "server.http_addr is required",
		},
		{
			name: "missing store path",
			configContent: `
server:
  http_addr: "0.0.0.0:8080"
store:
  path: ""
auth:
  jwt_secret: "s"
`,
			wantErrSubstr: "store.path is required",
		},
		{
			name: "missing jwt secret",
			configContent: `
server:
  http_addr: "0.0.0.0:8080"
store:
  path: "./test.db"
`,
			wantErrSubstr: "auth.jwt_secret is required",
		},
		{
			name: "negative rate limit",
			configContent: `
server:
  http_addr: "0.0.0.0:8080"
store:
  path: "./test.db"
auth:
  jwt_secret: "s"
ratelimit:
  limit: -1
`,
			wantErrSubstr: "ratelimit.limit must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeConfig(t, tt.configContent)

			_, err := Load(configPath)
			if err == nil {
				t.Errorf("Load() expected error containing %q, got nil", tt.wantErrSubstr)
				return
			}

			if !strings.Contains(err.Error(), tt.wantErrSubstr) {
				t.Errorf("Load() error = %q, want error containing %q", err.Error(), tt.wantErrSubstr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FOO", "bar")
	t.Setenv("BAZ", "qux")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single env var",
			input:    "${FOO}",
			expected: "bar",
		},
		{
			name:     "env var with surrounding text",
			input:    "prefix-${FOO}-suffix",
			expected: "prefix-bar-suffix",
		},
		{
			name:     "multiple env vars",
			input:    "${FOO}/${BAZ}",
			expected: "bar/qux",
		},
		{
			name:     "no env vars",
			input:    "no-vars-here",
			expected: "no-vars-here",
		},
		{
			name:     "unset env var",
			input:    "${UNSET_VAR}",
			expected: "",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
