package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berrywallet/berrysync/internal/coin"
	"github.com/berrywallet/berrysync/internal/config"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

func TestLoadSave_RoundTrip(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	cfg := config.Defaults()
	cfg.Coins.Enabled = []string{"BTC", "ETH"}
	cfg.Coins.Testnet = true
	cfg.Sync.ResyncInterval = 5 * time.Minute
	cfg.Notifications.Backend = config.NotifyBackendLog

	require.NoError(t, config.Save(cfg, path))

	_, err := os.Stat(path)
	require.NoError(t, err)

	loaded, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Version, loaded.Version)
	assert.Equal(t, []string{"BTC", "ETH"}, loaded.Coins.Enabled)
	assert.True(t, loaded.Coins.Testnet)
	assert.Equal(t, 5*time.Minute, loaded.Sync.ResyncInterval)
	assert.Equal(t, config.DefaultSaveDebounce, loaded.Sync.SaveDebounce)
	assert.Equal(t, config.NotifyBackendLog, loaded.Notifications.Backend)
}

func TestLoad_DurationStrings(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("sync:\n  save_debounce: 150ms\n  reconnect_threshold: 30m\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 150*time.Millisecond, cfg.Sync.SaveDebounce)
	assert.Equal(t, 30*time.Minute, cfg.Sync.ReconnectThreshold)
	// Unset keys keep their defaults.
	assert.Equal(t, config.DefaultResyncInterval, cfg.Sync.ResyncInterval)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := config.Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, walleterr.ErrConfigNotFound)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("coins: [unterminated"), 0o600))
	_, err = config.Load(bad)
	require.ErrorIs(t, err, walleterr.ErrConfigInvalid)
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "~/.berrysync", cfg.Home)
	assert.Len(t, cfg.Coins.Enabled, 5)
	assert.False(t, cfg.Coins.Testnet)
	assert.Equal(t, 300*time.Millisecond, cfg.Sync.SaveDebounce)
	assert.Equal(t, 20*time.Minute, cfg.Sync.ReconnectThreshold)
	assert.Equal(t, 15*time.Minute, cfg.Sync.ResyncInterval)
	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, config.NotifyBackendOS, cfg.Notifications.Backend)
	assert.Equal(t, config.StorageBackendBadger, cfg.Storage.Backend)
	assert.True(t, cfg.Security.MemoryLock)
	assert.Equal(t, "error", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown coin", func(c *config.Config) { c.Coins.Enabled = []string{"BTC", "DOGE"} }},
		{"no coins", func(c *config.Config) { c.Coins.Enabled = nil }},
		{"zero debounce", func(c *config.Config) { c.Sync.SaveDebounce = 0 }},
		{"negative resync", func(c *config.Config) { c.Sync.ResyncInterval = -time.Second }},
		{"zero reconnect", func(c *config.Config) { c.Sync.ReconnectThreshold = 0 }},
		{"unknown notify backend", func(c *config.Config) { c.Notifications.Backend = "email" }},
		{"negative burst", func(c *config.Config) { c.Notifications.Burst = -1 }},
		{"unknown storage backend", func(c *config.Config) { c.Storage.Backend = "sqlite" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, walleterr.ErrConfigInvalid)
			assert.Equal(t, walleterr.ExitInput, walleterr.ExitCode(err))
		})
	}
}

func TestEnabledCoins(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.Coins.Enabled = []string{"btc", "ETH"}
	cfg.Coins.Testnet = true

	coins := cfg.EnabledCoins()
	require.Len(t, coins, 2)
	assert.Equal(t, coin.BTC, coins[0].ID())
	assert.Equal(t, "BTCtest", coins[0].Key())
	assert.Equal(t, "ETHtest", coins[1].Key())
}

func TestPaths(t *testing.T) {
	t.Parallel()
	cfg := config.Defaults()
	cfg.Home = "/var/lib/berrysync"

	assert.Equal(t, "/var/lib/berrysync/config.yaml", config.Path(cfg.GetHome()))
	assert.Equal(t, "/var/lib/berrysync/data", cfg.StoragePath())
	assert.Equal(t, "/var/lib/berrysync/seed.age", cfg.SeedFilePath())

	cfg.Storage.Path = "/tmp/db"
	cfg.Security.SeedFile = "/tmp/seed"
	assert.Equal(t, "/tmp/db", cfg.StoragePath())
	assert.Equal(t, "/tmp/seed", cfg.SeedFilePath())
}

func TestExpandHome(t *testing.T) {
	t.Parallel()
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".berrysync"), config.ExpandHome("~/.berrysync"))
	assert.Equal(t, home, config.ExpandHome("~"))
	assert.Equal(t, "/abs/path", config.ExpandHome("/abs/path"))
	assert.Equal(t, "rel/~/x", config.ExpandHome("rel/~/x"))
}
