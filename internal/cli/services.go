package cli

import (
	"github.com/berrywallet/berrysync/internal/config"
	"github.com/berrywallet/berrysync/internal/notify"
	"github.com/berrywallet/berrysync/internal/storage"
	"github.com/berrywallet/berrysync/internal/store"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

// openStore opens the configured database and loads the application store.
// The caller closes the returned DB.
func openStore(c *config.Config) (*store.Store, storage.DB, error) {
	db, err := storage.Open(c.Storage.Backend, c.StoragePath())
	if err != nil {
		return nil, nil, walleterr.WithCause(walleterr.ErrStoreFailure, err)
	}

	s, err := store.Open(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return s, db, nil
}

// newNotifier builds the configured notification sender. It returns nil
// when notifications are disabled.
func newNotifier(c *config.Config, log *config.Logger) notify.Sender {
	if !c.Notifications.Enabled {
		return nil
	}

	switch c.Notifications.Backend {
	case config.NotifyBackendLog:
		return notify.NewLogSender(log.With("notify"))
	default:
		return notify.NewOSSender(
			config.SanitizeAppName(c.Notifications.AppName),
			c.Notifications.RatePerSecond,
			c.Notifications.Burst,
		)
	}
}
