// ABOUTME: Standard filesystem paths for guesswho configuration
// ABOUTME: Resolves ~/.guesswho/ and the settings file inside it

package config

import (
	"os"
	"path/filepath"
)

const (
	globalDirName    = ".guesswho"
	settingsFileName = "settings.yaml"
)

// GlobalDir returns the user-global config directory (~/.guesswho/).
func GlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", globalDirName)
	}
	return filepath.Join(home, globalDirName)
}

// SettingsFile returns the default settings path.
func SettingsFile() string {
	return filepath.Join(GlobalDir(), settingsFileName)
}

// EnsureDir creates a directory and all parents if they don't exist.
// Uses 0o700 since the settings file holds API keys.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o700)
}
