package config

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the pyclaw home directory.
const HomeEnv = "PYCLAW_HOME"

// Dir returns the pyclaw home directory: $PYCLAW_HOME or ~/.pyclaw.
func Dir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return ExpandHome(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pyclaw"
	}
	return filepath.Join(home, ".pyclaw")
}

// DefaultPath returns the config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.json")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
