// Package config holds the daemon's on-disk configuration: a JSON file at
// ~/.surf/config.json loaded over built-in defaults. A missing file is not
// an error; a malformed one is, so a typo never silently reverts settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the daemon configuration.
type Config struct {
	// SocketPath is the IPC endpoint. Empty means the default under ~/.surf.
	SocketPath string `json:"socket_path,omitempty"`

	// Headless controls whether the browser shows a window.
	Headless bool `json:"headless"`

	// OpenInitialTab opens one tab at daemon start.
	OpenInitialTab bool `json:"open_initial_tab"`

	// StartURL, when set, is loaded in the initial tab.
	StartURL string `json:"start_url,omitempty"`

	// TimeoutSeconds bounds page operations (element waits, navigation).
	TimeoutSeconds int `json:"timeout_seconds"`

	// Viewport dimensions for new pages.
	ViewportWidth  int `json:"viewport_width"`
	ViewportHeight int `json:"viewport_height"`

	// RulesPath points at an optional YAML file of custom parser rules.
	// Empty means the default under ~/.surf.
	RulesPath string `json:"rules_path,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Headless:       false,
		OpenInitialTab: true,
		TimeoutSeconds: 30,
		ViewportWidth:  1280,
		ViewportHeight: 720,
	}
}

// Timeout returns the page-operation bound as a duration.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Socket returns the configured socket path, or the default.
func (c Config) Socket() string {
	if c.SocketPath != "" {
		return c.SocketPath
	}
	return filepath.Join(homeDir(), ".surf", "surfd.sock")
}

// Rules returns the custom parser rules path, or the default.
func (c Config) Rules() string {
	if c.RulesPath != "" {
		return c.RulesPath
	}
	return filepath.Join(homeDir(), ".surf", "rules.yaml")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(homeDir(), ".surf", "config.json")
}

// Load reads the config at path over defaults. If path is empty the default
// location is used; a missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
