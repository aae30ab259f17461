package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigName is the file name used when no --config flag is given.
const DefaultConfigName = "config.yaml"

// ConfigDir returns the path to the filevault config directory (~/.filevault).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".filevault"), nil
}

// EnsureConfigDir creates the config directory if it does not exist.
func EnsureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	return dir, nil
}

// DefaultPath returns the path to the named file inside the config directory.
// If name is already an absolute path, it is returned as-is.
func DefaultPath(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}

	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// DefaultKeystoreDir returns ~/.filevault/keystore.
func DefaultKeystoreDir() (string, error) {
	return DefaultPath("keystore")
}
