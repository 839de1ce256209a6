package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome           = "BERRYSYNC_HOME"
	EnvLogLevel       = "BERRYSYNC_LOG_LEVEL"
	EnvStorageBackend = "BERRYSYNC_STORAGE_BACKEND"
	EnvNotifications  = "BERRYSYNC_NOTIFICATIONS"
	EnvResyncInterval = "BERRYSYNC_RESYNC_INTERVAL"
	EnvAppName        = "BERRYSYNC_APP_NAME"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}

	if v := os.Getenv(EnvStorageBackend); v != "" {
		cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(v))
	}

	// BERRYSYNC_NOTIFICATIONS accepts a boolean or a backend name
	if v := os.Getenv(EnvNotifications); v != "" {
		switch s := strings.ToLower(strings.TrimSpace(v)); s {
		case NotifyBackendOS, NotifyBackendLog:
			cfg.Notifications.Enabled = true
			cfg.Notifications.Backend = s
		default:
			cfg.Notifications.Enabled = parseBool(s)
		}
	}

	if v := os.Getenv(EnvResyncInterval); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil && d > 0 {
			cfg.Sync.ResyncInterval = d
		}
	}

	if v := os.Getenv(EnvAppName); v != "" {
		if name := SanitizeAppName(v); name != "" {
			cfg.Notifications.AppName = name
		}
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

// SanitizeAppName keeps letters, digits and spaces. The name is passed to
// notification commands, so quotes and shell metacharacters are dropped.
func SanitizeAppName(name string) string {
	return strings.TrimSpace(sanitize.AlphaNumeric(name, true))
}
