// Copyright 2026 The Linkup Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the linkup
// client.
//
// Configuration is loaded from a single YAML file specified by:
//   - LINKUP_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery beyond the built-in
// defaults, which cover a local development server out of the box.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the client configuration.
type Config struct {
	// Server configures how to reach the chat server.
	Server ServerConfig `yaml:"server"`

	// Vault configures where credentials are stored at rest.
	Vault VaultConfig `yaml:"vault"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// ServerConfig configures the chat server endpoints. The HTTP API and
// the websocket share one host; only the scheme differs.
type ServerConfig struct {
	// Host is the server's host and optional port, e.g.
	// "localhost:8000" or "chat.example.com".
	Host string `yaml:"host"`

	// TLS selects https/wss over http/ws.
	TLS bool `yaml:"tls"`
}

// VaultConfig configures the encrypted credential store.
type VaultConfig struct {
	// Path is the vault file location.
	Path string `yaml:"path"`

	// IdentityPath is the age identity key file that unlocks the
	// vault. Created on first run if absent.
	IdentityPath string `yaml:"identity_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn, or error.
	Level string `yaml:"level"`
}

// Default returns the default configuration: a local development
// server, vault files under the user's data directory, info logging.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".local", "share", "linkup")

	return &Config{
		Server: ServerConfig{
			Host: "localhost:8000",
		},
		Vault: VaultConfig{
			Path:         filepath.Join(dataDir, "vault"),
			IdentityPath: filepath.Join(dataDir, "identity"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the LINKUP_CONFIG environment
// variable. Fails when the variable is not set; callers who accept
// running on defaults check for that themselves.
func Load() (*Config, error) {
	configPath := os.Getenv("LINKUP_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("config: LINKUP_CONFIG environment variable not set; " +
			"set it to the path of your linkup.yaml config file, or use --config")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, merging the
// file's values over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Vault.Path == "" {
		return fmt.Errorf("vault.path is required")
	}
	if c.Vault.IdentityPath == "" {
		return fmt.Errorf("vault.identity_path is required")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// APIBaseURL returns the HTTP base URL for the chat server.
func (c *Config) APIBaseURL() string {
	scheme := "http"
	if c.Server.TLS {
		scheme = "https"
	}
	return scheme + "://" + c.Server.Host
}

// SocketBaseURL returns the websocket base URL for the chat server.
func (c *Config) SocketBaseURL() string {
	scheme := "ws"
	if c.Server.TLS {
		scheme = "wss"
	}
	return scheme + "://" + c.Server.Host
}

// SlogLevel maps the configured log level to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
}
