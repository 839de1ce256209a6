package config

import "time"

// Backend names.
const (
	NotifyBackendOS  = "os"
	NotifyBackendLog = "log"

	StorageBackendBadger = "badger"
	StorageBackendMemory = "memory"
)

// Wallet manager timing defaults.
const (
	DefaultSaveDebounce       = 300 * time.Millisecond
	DefaultReconnectThreshold = 20 * time.Minute
	DefaultResyncInterval     = 15 * time.Minute
)

// DefaultAppName is shown as the sender of desktop notifications.
const DefaultAppName = "Berrywallet"

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.berrysync",
		Coins: CoinsConfig{
			Enabled: []string{"BTC", "LTC", "BCH", "DASH", "ETH"},
			Testnet: false,
		},
		Sync: SyncConfig{
			SaveDebounce:       DefaultSaveDebounce,
			ReconnectThreshold: DefaultReconnectThreshold,
			ResyncInterval:     DefaultResyncInterval,
		},
		Notifications: NotificationsConfig{
			Enabled:       true,
			Backend:       NotifyBackendOS,
			AppName:       DefaultAppName,
			RatePerSecond: 1,
			Burst:         5,
		},
		Storage: StorageConfig{
			Backend: StorageBackendBadger,
			Path:    "", // <home>/data
		},
		Security: SecurityConfig{
			SeedFile:   "", // <home>/seed.age
			MemoryLock: true,
		},
		Logging: LoggingConfig{
			Level:   "error",
			File:    "~/.berrysync/berrysync.log",
			Console: false,
		},
	}
}
