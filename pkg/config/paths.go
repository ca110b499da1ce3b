package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file.
	EnvConfigPath = "GRAPHSIM_CONFIG"
	// EnvBackendURL overrides backend.url.
	EnvBackendURL = "GRAPHSIM_BACKEND_URL"
	// ConfigFileName is looked up in the working directory.
	ConfigFileName = "graphsim.toml"
	// AppDirName names the per-user config and cache directories.
	AppDirName = "graphsim"
)

// FindConfigPath returns the first existing config file, or "".
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" && fileExists(path) {
		return path
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		if path := filepath.Join(xdg, AppDirName, "config.toml"); fileExists(path) {
			return path
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		if path := filepath.Join(home, ".config", AppDirName, "config.toml"); fileExists(path) {
			return path
		}
	}
	return ""
}

// CacheDir returns the configured cache directory or the XDG default
// ($XDG_CACHE_HOME/graphsim, falling back to ~/.cache/graphsim).
func (c CacheConfig) CacheDir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, AppDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppDirName), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
