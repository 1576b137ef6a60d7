// ABOUTME: Configuration loading for the toolgate admin CLI.
// ABOUTME: Loads TOML config from XDG path with environment variable expansion.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

type cliConfig struct {
	Gateway gatewayConfig `toml:"gateway"`
	Auth    authConfig    `toml:"auth"`
}

type gatewayConfig struct {
	URL string `toml:"url"`
}

type authConfig struct {
	Token string `toml:"token"`
}

// configPath returns the CLI config path.
// Priority: TOOLGATE_ADMIN_CONFIG env var > XDG_CONFIG_HOME/toolgate/admin.toml > ~/.config/toolgate/admin.toml
func configPath() string {
	if envPath := os.Getenv("TOOLGATE_ADMIN_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "admin.toml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "toolgate", "admin.toml")
}

// loadConfig reads the CLI config, layering environment overrides on top.
// A missing file is not an error: everything can come from the environment.
func loadConfig() (*cliConfig, error) {
	cfg := &cliConfig{}

	data, err := os.ReadFile(configPath())
	if err == nil {
		expanded := expandEnvVars(string(data))
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if url := os.Getenv("TOOLGATE_URL"); url != "" {
		cfg.Gateway.URL = url
	}
	if token := os.Getenv("TOOLGATE_TOKEN"); token != "" {
		cfg.Auth.Token = token
	}

	if cfg.Gateway.URL == "" {
		cfg.Gateway.URL = "http://localhost:8080"
	}
	cfg.Gateway.URL = strings.TrimRight(cfg.Gateway.URL, "/")

	return cfg, nil
}

// expandEnvVars replaces ${VAR} with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimSuffix(strings.TrimPrefix(match, "${"), "}")
		return os.Getenv(varName)
	})
}
