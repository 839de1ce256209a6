// Package config provides configuration management for berrysync.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/berrywallet/berrysync/internal/coin"
	"github.com/berrywallet/berrysync/internal/fileutil"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	Version       int                 `yaml:"version"`
	Home          string              `yaml:"home"`
	Coins         CoinsConfig         `yaml:"coins"`
	Sync          SyncConfig          `yaml:"sync"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Storage       StorageConfig       `yaml:"storage"`
	Security      SecurityConfig      `yaml:"security"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// CoinsConfig selects the wallets to manage.
type CoinsConfig struct {
	Enabled []string `yaml:"enabled"`
	Testnet bool     `yaml:"testnet"`
}

// SyncConfig defines wallet manager timing.
type SyncConfig struct {
	SaveDebounce       time.Duration `yaml:"save_debounce"`
	ReconnectThreshold time.Duration `yaml:"reconnect_threshold"`
	ResyncInterval     time.Duration `yaml:"resync_interval"`
}

// NotificationsConfig defines how incoming transactions are announced.
type NotificationsConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Backend       string  `yaml:"backend"`
	AppName       string  `yaml:"app_name"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// StorageConfig defines where wallet state is persisted.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// SecurityConfig defines security settings.
type SecurityConfig struct {
	SeedFile   string `yaml:"seed_file"`
	MemoryLock bool   `yaml:"memory_lock"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// Load reads configuration from the specified file.
func Load(path string) (*Config, error) {
	// #nosec G304 -- config file path is from validated user input
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, walleterr.WithCause(walleterr.ErrConfigNotFound, err)
		}
		return nil, err
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, walleterr.WithCause(walleterr.ErrConfigInvalid, err)
	}

	return cfg, nil
}

// Save writes configuration to the specified file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteAtomic(path, data, 0o600)
}

// Path returns the default config file path.
func Path(home string) string {
	return filepath.Join(home, "config.yaml")
}

// Validate checks the configuration for values the managers cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if len(c.Coins.Enabled) == 0 {
		problems = append(problems, "coins.enabled: at least one coin is required")
	}
	for _, id := range c.Coins.Enabled {
		if _, ok := coin.ParseID(id); !ok {
			problems = append(problems, fmt.Sprintf("coins.enabled: unknown coin %q", id))
		}
	}

	durations := map[string]time.Duration{
		"sync.save_debounce":       c.Sync.SaveDebounce,
		"sync.reconnect_threshold": c.Sync.ReconnectThreshold,
		"sync.resync_interval":     c.Sync.ResyncInterval,
	}
	for _, name := range []string{"sync.save_debounce", "sync.reconnect_threshold", "sync.resync_interval"} {
		if durations[name] <= 0 {
			problems = append(problems, name+": must be positive")
		}
	}

	switch c.Notifications.Backend {
	case NotifyBackendOS, NotifyBackendLog:
	default:
		problems = append(problems, fmt.Sprintf("notifications.backend: unknown backend %q", c.Notifications.Backend))
	}
	if c.Notifications.RatePerSecond < 0 || c.Notifications.Burst < 0 {
		problems = append(problems, "notifications: rate and burst must not be negative")
	}

	switch c.Storage.Backend {
	case StorageBackendBadger, StorageBackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("storage.backend: unknown backend %q", c.Storage.Backend))
	}

	if len(problems) == 0 {
		return nil
	}
	return walleterr.WithSuggestion(
		walleterr.Wrap(walleterr.ErrConfigInvalid, "%s", strings.Join(problems, "; ")),
		"run 'berrysync config show' to inspect the effective configuration",
	)
}

// EnabledCoins returns the configured coins on the configured network.
// Validate must have succeeded.
func (c *Config) EnabledCoins() []coin.Coin {
	coins := make([]coin.Coin, 0, len(c.Coins.Enabled))
	for _, s := range c.Coins.Enabled {
		id, ok := coin.ParseID(s)
		if !ok {
			continue
		}
		coins = append(coins, coin.New(id, c.Coins.Testnet))
	}
	return coins
}

// GetHome returns the berrysync home directory with ~ expanded.
func (c *Config) GetHome() string {
	return ExpandHome(c.Home)
}

// StoragePath returns the database directory.
func (c *Config) StoragePath() string {
	if c.Storage.Path != "" {
		return ExpandHome(c.Storage.Path)
	}
	return filepath.Join(c.GetHome(), "data")
}

// SeedFilePath returns the encrypted seed file location.
func (c *Config) SeedFilePath() string {
	if c.Security.SeedFile != "" {
		return ExpandHome(c.Security.SeedFile)
	}
	return filepath.Join(c.GetHome(), "seed.age")
}

// GetLoggingLevel returns the configured logging level.
func (c *Config) GetLoggingLevel() string {
	return c.Logging.Level
}

// GetLoggingFile returns the configured log file path.
func (c *Config) GetLoggingFile() string {
	return c.Logging.File
}

// GetSecurity returns the security configuration.
func (c *Config) GetSecurity() SecurityConfig {
	return c.Security
}

// DefaultHome returns the default berrysync home directory.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".berrysync"
	}
	return filepath.Join(home, ".berrysync")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
