// Package manager coordinates one coin's wallet: it keeps the wallet-data
// provider synchronized with the network, persists its state through the
// controller's store, raises notifications for incoming transactions and
// exposes transaction sending, fee estimation and key export.
package manager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"github.com/ethereum/go-ethereum/event"
	"github.com/lightningnetwork/lnd/clock"

	"github.com/berrywallet/berrysync/internal/coin"
	"github.com/berrywallet/berrysync/internal/metrics"
	"github.com/berrywallet/berrysync/internal/notify"
	"github.com/berrywallet/berrysync/internal/provider"
	"github.com/berrywallet/berrysync/internal/store"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

// Timing defaults.
const (
	DefaultSaveDebounce       = 300 * time.Millisecond
	DefaultReconnectThreshold = 20 * time.Minute
	DefaultResyncInterval     = 15 * time.Minute
)

// eventBuffer is the capacity of every subscription channel.
const eventBuffer = 64

// ErrResyncInProgress is returned by Resync while another resync runs.
var ErrResyncInProgress = errors.New("resync already in progress")

// Controller is the application side a manager reports to.
type Controller interface {
	// DispatchStore applies a state action to the application store.
	DispatchStore(action store.Action) error

	// Seed returns a copy of the unlocked BIP39 seed, or
	// walleterr.ErrWalletLocked. The manager zeroes the copy after use.
	Seed() ([]byte, error)
}

// LogWriter provides logging operations.
type LogWriter interface {
	Debug(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds dependencies for a manager.
type Config struct {
	Coin       coin.Coin
	Provider   provider.Provider
	Controller Controller

	// Notifier announces incoming transactions. Nil disables notifications.
	Notifier notify.Sender
	Logger   LogWriter
	Clock    clock.Clock
	Metrics  *metrics.Metrics

	// Zero values select the defaults.
	SaveDebounce       time.Duration
	ReconnectThreshold time.Duration
	ResyncInterval     time.Duration
}

// Manager is the per-coin wallet coordinator.
type Manager struct {
	coin       coin.Coin
	provider   provider.Provider
	controller Controller
	notifier   notify.Sender
	log        LogWriter
	clock      clock.Clock
	metrics    *metrics.Metrics

	reconnectThreshold time.Duration
	resyncInterval     time.Duration
	debounced          func(f func())

	// Subscription channels. changeCh and newTxCh are drained by their own
	// pumps because the event loop mutates the provider that feeds them.
	changeCh  chan provider.ChangeEvent
	addrTxCh  chan *provider.WalletTransaction
	confirmCh chan *provider.WalletTransaction
	blockCh   chan *provider.Block
	connectCh chan provider.ConnectEvent
	newTxCh   chan *provider.WalletTransaction
	saveCh    chan struct{}
	rearmCh   chan struct{}

	scope        event.SubscriptionScope
	confirmSubs  []event.Subscription // owned by the event loop
	lastConnect  time.Time            // owned by the event loop
	resyncActive atomic.Bool

	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	quit         chan struct{}
	loopDone     chan struct{}
	pumps        sync.WaitGroup
	closed       atomic.Bool
	destructOnce sync.Once
	destructErr  error
}

// New wires a manager to its provider and starts the event loop.
func New(cfg *Config) (*Manager, error) {
	if cfg == nil || cfg.Provider == nil || cfg.Controller == nil {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidInput, map[string]string{
			"reason": "manager requires a provider and a controller",
		})
	}

	m := &Manager{
		coin:               cfg.Coin,
		provider:           cfg.Provider,
		controller:         cfg.Controller,
		notifier:           cfg.Notifier,
		log:                cfg.Logger,
		clock:              cfg.Clock,
		metrics:            cfg.Metrics,
		reconnectThreshold: orDefault(cfg.ReconnectThreshold, DefaultReconnectThreshold),
		resyncInterval:     orDefault(cfg.ResyncInterval, DefaultResyncInterval),

		changeCh:  make(chan provider.ChangeEvent, eventBuffer),
		addrTxCh:  make(chan *provider.WalletTransaction, eventBuffer),
		confirmCh: make(chan *provider.WalletTransaction, eventBuffer),
		blockCh:   make(chan *provider.Block, eventBuffer),
		connectCh: make(chan provider.ConnectEvent, eventBuffer),
		newTxCh:   make(chan *provider.WalletTransaction, eventBuffer),
		saveCh:    make(chan struct{}, 1),
		rearmCh:   make(chan struct{}, 1),
		quit:      make(chan struct{}),
		loopDone:  make(chan struct{}),
	}
	if m.log == nil {
		m.log = nopLogger{}
	}
	if m.clock == nil {
		m.clock = clock.NewDefaultClock()
	}
	if m.metrics == nil {
		m.metrics = metrics.Global
	}
	m.debounced = debounce.New(orDefault(cfg.SaveDebounce, DefaultSaveDebounce))
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.subscribe()
	m.pumps.Add(2)
	go m.pumpChanges()
	go m.pumpNewTx()
	go m.run()

	m.log.Debug("wallet manager started for %s", m.coin.Key())
	return m, nil
}

func (m *Manager) subscribe() {
	network := m.provider.NetworkProvider()

	m.scope.Track(m.provider.SubscribeChange(m.changeCh))

	addresses := m.provider.Address().List()
	track := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		track = append(track, addr.Address)
	}
	m.scope.Track(network.SubscribeAddrsTx(track, m.addrTxCh))

	m.setUnconfirmedTxTracking()

	m.scope.Track(network.SubscribeNewBlock(m.blockCh))
	m.scope.Track(network.Tracker().SubscribeConnect(m.connectCh))
	m.scope.Track(m.provider.SubscribeNewTx(m.newTxCh))
}

// Provider returns the wallet-data provider this manager coordinates.
func (m *Manager) Provider() provider.Provider {
	return m.provider
}

// Coin returns the managed coin.
func (m *Manager) Coin() coin.Coin {
	return m.coin
}

// UpdateBlockInfo records block as the coin's latest height in the store.
func (m *Manager) UpdateBlockInfo(block *provider.Block) error {
	if block == nil {
		return nil
	}
	return m.dispatch(store.SetBlockHeight{
		CoinKey:     m.coin.Key(),
		BlockHeight: block.Height,
	})
}

// Destruct stops the event loop, drops every subscription, stops background
// work and releases the provider. It is safe to call more than once; later
// calls return the first call's result.
func (m *Manager) Destruct() error {
	m.destructOnce.Do(func() {
		m.closed.Store(true)

		if m.quit != nil {
			close(m.quit)
			<-m.loopDone
			m.pumps.Wait()
		}

		m.scope.Close()
		m.dropConfirmTracking()

		if m.cancel != nil {
			m.cancel()
		}
		m.wg.Wait()

		if m.provider != nil {
			m.destructErr = m.provider.Destruct()
		}
		if m.log != nil {
			m.log.Debug("wallet manager for %s destructed", m.coin.Key())
		}
	})
	return m.destructErr
}

func (m *Manager) dispatch(action store.Action) error {
	err := m.controller.DispatchStore(action)
	if err != nil {
		m.log.Error("dispatch %s failed: %v", action.Type(), err)
	}
	return err
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Error(string, ...any) {}
