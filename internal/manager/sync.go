package manager

import (
	"context"
	"errors"

	"github.com/berrywallet/berrysync/internal/provider"
	"github.com/berrywallet/berrysync/internal/store"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

// Resync runs a full wallet update and waits for it. It returns
// ErrResyncInProgress when another resync is running.
func (m *Manager) Resync(ctx context.Context) error {
	if m.closed.Load() {
		return walleterr.ErrManagerClosed
	}
	if !m.resyncActive.CompareAndSwap(false, true) {
		m.metrics.RecordResyncSkipped()
		return ErrResyncInProgress
	}
	defer m.resyncActive.Store(false)

	start := m.clock.Now()
	err := m.provider.Updater().Update(ctx)
	m.metrics.RecordResync(m.clock.Now().Sub(start), err)
	return err
}

// triggerResync starts a resync in the background. Failures are logged
// and never reach the caller.
func (m *Manager) triggerResync(reason string) {
	if m.closed.Load() {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		err := m.Resync(m.ctx)
		switch {
		case err == nil:
			m.log.Debug("resync (%s) finished", reason)
		case errors.Is(err, ErrResyncInProgress):
			m.log.Debug("resync (%s) skipped: %v", reason, err)
		default:
			m.log.Error("resync (%s) failed: %v", reason, err)
		}
	}()
}

// ResetResyncTimer restarts the periodic resync interval from now.
func (m *Manager) ResetResyncTimer() {
	if m.closed.Load() {
		return
	}
	select {
	case m.rearmCh <- struct{}{}:
	default:
	}
}

func newSetWalletData(key string, data *provider.WalletData) store.SetWalletData {
	return store.SetWalletData{
		WalletCoinKey: key,
		WalletData:    data,
	}
}
