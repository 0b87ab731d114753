package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the optional file-based configuration. A missing file yields the
// zero Config; a malformed one is an error so typos do not silently fall
// back to defaults.
type Config struct {
	// CacheDir overrides the XDG cache location.
	CacheDir string `toml:"cache_dir"`

	// RedisURL switches the serve command's cache to Redis.
	RedisURL string `toml:"redis_url"`

	// MongoURI switches the serve command's snapshot store to MongoDB.
	MongoURI string `toml:"mongo_uri"`

	// ListenAddr is the serve command's bind address.
	ListenAddr string `toml:"listen_addr"`
}

// configPath returns the config file location following the XDG standard
// (~/.config/netplot/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfig reads the config file if it exists.
func loadConfig() (Config, error) {
	path, err := configPath()
	if err != nil {
		return Config{}, nil
	}
	return loadConfigFile(path)
}

func loadConfigFile(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
