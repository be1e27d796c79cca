// Package config loads settings from the config file and the environment.
// Precedence: environment > config file > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lotas/tabgruppen/internal/rules"
	"gopkg.in/yaml.v3"
)

// DefaultPort is the WebSocket port the extension connects to.
const DefaultPort = 19192

// Config holds all settings.
type Config struct {
	Port       int    `yaml:"port"`
	Profile    string `yaml:"profile"`     // Firefox profile name for offline mode
	DBPath     string `yaml:"db_path"`     // empty = platform default
	MoveTarget string `yaml:"move_target"` // target for the move-uncategorized command

	// SeedGroups overrides the built-in default rules on first run.
	SeedGroups rules.Rules `yaml:"seed_groups"`
}

// DefaultPath returns ~/.config/tabgruppen/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "tabgruppen", "config.yaml")
}

// Load reads the config file at path (missing file is fine) and applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{Port: DefaultPort}

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
			if cfg.Port == 0 {
				cfg.Port = DefaultPort
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if v := os.Getenv("TABGRUPPEN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("TABGRUPPEN_PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("TABGRUPPEN_PROFILE"); v != "" {
		cfg.Profile = v
	}
	if v := os.Getenv("TABGRUPPEN_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TABGRUPPEN_MOVE_TARGET"); v != "" {
		cfg.MoveTarget = v
	}

	return cfg, nil
}
