// Package config defines the CLI configuration structure.
package config

import (
	"os"
	"path/filepath"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".streamcoord", "cli.yaml")
}

// Load loads CLI configuration from file.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	// TODO: read and parse YAML file
	return Default(), nil
}

// Save saves CLI configuration to file.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	// TODO: write YAML file with appropriate permissions (0600)
	return nil
}

// Merge merges environment variables and flags into config.
func Merge(cfg *CLIConfig, env map[string]string, flags map[string]string) *CLIConfig {
	// TODO: override with STREAMCOORD_* environment variables
	// TODO: override with command-line flags
	return cfg
}
