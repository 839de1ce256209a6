// Package controller owns the application state shared by every wallet
// manager: the store, the unlocked seed and the registry of managers.
package controller

import (
	"errors"
	"sort"
	"sync"

	"github.com/lightningnetwork/lnd/clock"

	"github.com/berrywallet/berrysync/internal/coin"
	"github.com/berrywallet/berrysync/internal/config"
	"github.com/berrywallet/berrysync/internal/crypto"
	"github.com/berrywallet/berrysync/internal/manager"
	"github.com/berrywallet/berrysync/internal/metrics"
	"github.com/berrywallet/berrysync/internal/notify"
	"github.com/berrywallet/berrysync/internal/provider"
	"github.com/berrywallet/berrysync/internal/store"
	"github.com/berrywallet/berrysync/internal/wallet"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

// Logger is the logging surface of the controller. Component loggers are
// derived per manager.
type Logger interface {
	manager.LogWriter
	With(component string) *config.Logger
}

// Config holds controller dependencies.
type Config struct {
	Store    *store.Store
	Notifier notify.Sender
	Logger   Logger
	Clock    clock.Clock
	Metrics  *metrics.Metrics
	Sync     config.SyncConfig

	// LockMemory mlocks the unlocked seed when the OS allows it.
	LockMemory bool
}

// Controller is the registry of wallet managers and the holder of the seed.
type Controller struct {
	cfg Config

	mu       sync.RWMutex
	managers map[string]*manager.Manager
	seed     *crypto.SecureBytes
	closed   bool
}

// New creates a controller. Store is required.
func New(cfg *Config) (*Controller, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{
			"reason": "controller requires a store",
		})
	}

	c := &Controller{
		cfg:      *cfg,
		managers: make(map[string]*manager.Manager),
	}
	if c.cfg.Logger == nil {
		c.cfg.Logger = config.NullLogger()
	}
	if c.cfg.Metrics == nil {
		c.cfg.Metrics = metrics.Global
	}
	return c, nil
}

// Store returns the application store.
func (c *Controller) Store() *store.Store {
	return c.cfg.Store
}

// DispatchStore implements manager.Controller.
func (c *Controller) DispatchStore(action store.Action) error {
	err := c.cfg.Store.Dispatch(action)
	c.cfg.Metrics.RecordDispatch(err)
	return err
}

// Seed implements manager.Controller. It returns a copy the caller must
// zero, or ErrWalletLocked.
func (c *Controller) Seed() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.seed == nil {
		return nil, walleterr.ErrWalletLocked
	}
	seed := c.seed.Copy()
	if seed == nil {
		return nil, walleterr.ErrWalletLocked
	}
	return seed, nil
}

// Unlock decrypts the seed file with password and holds the seed until
// Lock or Close.
func (c *Controller) Unlock(seedFile, password string) error {
	seed, err := wallet.LoadSeed(seedFile, password, c.cfg.LockMemory)
	if err != nil {
		return err
	}
	c.setSeed(seed)
	c.cfg.Logger.Debug("wallet unlocked")
	return nil
}

// UnlockSeed holds a copy of an already derived BIP39 seed.
func (c *Controller) UnlockSeed(seed []byte) error {
	if len(seed) != wallet.SeedSize {
		return walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{
			"reason": "seed must be 64 bytes",
		})
	}

	secure, err := crypto.NewSecureBytesFrom(seed, c.cfg.LockMemory)
	if err != nil {
		return err
	}
	c.setSeed(secure)
	return nil
}

func (c *Controller) setSeed(seed *crypto.SecureBytes) {
	c.mu.Lock()
	old := c.seed
	c.seed = seed
	c.mu.Unlock()

	if old != nil {
		old.Destroy()
	}
}

// Lock wipes the held seed.
func (c *Controller) Lock() {
	c.setSeed(nil)
}

// IsUnlocked reports whether a seed is held.
func (c *Controller) IsUnlocked() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seed != nil
}

// AttachWallet starts a manager for the provider's coin. Only one manager
// per coin key may exist.
func (c *Controller) AttachWallet(cn coin.Coin, p provider.Provider) (*manager.Manager, error) {
	key := cn.Key()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, walleterr.ErrManagerClosed
	}
	if _, ok := c.managers[key]; ok {
		return nil, walleterr.WithDetails(walleterr.ErrManagerExists, map[string]string{"coin": key})
	}

	m, err := manager.New(&manager.Config{
		Coin:               cn,
		Provider:           p,
		Controller:         c,
		Notifier:           c.cfg.Notifier,
		Logger:             c.cfg.Logger.With("WM:" + cn.Unit()),
		Clock:              c.cfg.Clock,
		Metrics:            c.cfg.Metrics,
		SaveDebounce:       c.cfg.Sync.SaveDebounce,
		ReconnectThreshold: c.cfg.Sync.ReconnectThreshold,
		ResyncInterval:     c.cfg.Sync.ResyncInterval,
	})
	if err != nil {
		return nil, err
	}

	c.managers[key] = m
	c.cfg.Logger.Debug("attached wallet %s", key)
	return m, nil
}

// DetachWallet destructs and unregisters the manager of coinKey.
func (c *Controller) DetachWallet(coinKey string) error {
	c.mu.Lock()
	m, ok := c.managers[coinKey]
	delete(c.managers, coinKey)
	c.mu.Unlock()

	if !ok {
		return walleterr.WithDetails(walleterr.ErrManagerNotFound, map[string]string{"coin": coinKey})
	}
	c.cfg.Logger.Debug("detaching wallet %s", coinKey)
	return m.Destruct()
}

// Manager returns the manager registered for coinKey.
func (c *Controller) Manager(coinKey string) (*manager.Manager, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.managers[coinKey]
	if !ok {
		return nil, walleterr.WithDetails(walleterr.ErrManagerNotFound, map[string]string{"coin": coinKey})
	}
	return m, nil
}

// Managers returns every registered manager ordered by coin key.
func (c *Controller) Managers() []*manager.Manager {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.managers))
	for k := range c.managers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*manager.Manager, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.managers[k])
	}
	return out
}

// Close destructs every manager and wipes the seed. Further attaches fail
// with ErrManagerClosed.
func (c *Controller) Close() error {
	c.mu.Lock()
	c.closed = true
	managers := c.managers
	c.managers = make(map[string]*manager.Manager)
	c.mu.Unlock()

	var errs []error
	for key, m := range managers {
		if err := m.Destruct(); err != nil {
			errs = append(errs, walleterr.Wrap(err, "destructing %s", key))
		}
	}

	c.Lock()
	return errors.Join(errs...)
}
