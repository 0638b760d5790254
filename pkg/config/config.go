// Package config loads buildorder's TOML configuration: where dependency
// data files live, which branch group is the default, and how caching,
// serving and history are set up.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "buildorder"

// Duration wraps time.Duration so TOML values like "24h" decode directly.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config is the full configuration tree.
type Config struct {
	// DataDir is where relatively-named dependency data files are looked
	// up. "~" expands to the home directory.
	DataDir string `toml:"data-dir"`

	// DefaultBranchGroup selects the data file when no --branch-group or
	// --data flag is given.
	DefaultBranchGroup string `toml:"default-branch-group"`

	// BranchGroups maps group names to data files, absolute or relative
	// to DataDir. Unmapped groups fall back to the naming convention
	// "dependency-data-<group>".
	BranchGroups map[string]string `toml:"branch-groups"`

	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// CacheConfig selects and tunes the result cache.
type CacheConfig struct {
	Backend string      `toml:"backend"` // file | redis | none
	TTL     Duration    `toml:"ttl"`
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig configures the redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	Addr    string        `toml:"addr"`
	History HistoryConfig `toml:"history"`
}

// HistoryConfig configures the MongoDB resolution-run history.
type HistoryConfig struct {
	Enabled    bool   `toml:"enabled"`
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		DefaultBranchGroup: "stable",
		Cache: CacheConfig{
			Backend: "file",
			TTL:     Duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Addr: ":8173",
			History: HistoryConfig{
				URI:        "mongodb://localhost:27017",
				Database:   appName,
				Collection: "resolutions",
			},
		},
	}
}

// DefaultPath returns the standard config location, honoring
// XDG_CONFIG_HOME.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load decodes the file at path over the defaults. The file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path if given, otherwise the standard location if a
// file exists there, otherwise the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	std, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	if _, err := os.Stat(std); err != nil {
		return Default(), nil
	}
	return Load(std)
}

// DataFile resolves a branch group to the dependency data file to load.
func (c *Config) DataFile(group string) string {
	name, ok := c.BranchGroups[group]
	if !ok {
		name = "dependency-data-" + group
	}
	name = expandHome(name)
	if filepath.IsAbs(name) || c.DataDir == "" {
		return name
	}
	return filepath.Join(expandHome(c.DataDir), name)
}

// expandHome rewrites a leading "~/" to the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
