package manager

import (
	"github.com/berrywallet/berrysync/internal/notify"
	"github.com/berrywallet/berrysync/internal/provider"
)

// run is the event loop. Every provider mutation triggered by a network
// callback happens here, so the loop goroutine owns confirmSubs and
// lastConnect.
func (m *Manager) run() {
	defer close(m.loopDone)

	resyncTick := m.clock.TickAfter(m.resyncInterval)

	for {
		select {
		case <-m.quit:
			return

		case <-m.saveCh:
			m.saveWalletData()

		case tx := <-m.addrTxCh:
			m.putNewTx(tx)

		case tx := <-m.confirmCh:
			m.putNewTx(tx)

		case block := <-m.blockCh:
			_ = m.UpdateBlockInfo(block)

		case <-m.connectCh:
			m.handleConnect()

		case <-resyncTick:
			m.triggerResync("interval")
			resyncTick = m.clock.TickAfter(m.resyncInterval)

		case <-m.rearmCh:
			resyncTick = m.clock.TickAfter(m.resyncInterval)
		}
	}
}

// pumpChanges drains provider change events until the event loop has
// stopped. Adding a transaction on the loop emits change events, so the
// loop must never be their only reader.
func (m *Manager) pumpChanges() {
	defer m.pumps.Done()
	for {
		select {
		case <-m.loopDone:
			return
		case <-m.changeCh:
			m.debounced(m.requestSave)
		}
	}
}

// pumpNewTx drains new-transaction events until the event loop has stopped.
// handleNewTx only reads from the provider.
func (m *Manager) pumpNewTx() {
	defer m.pumps.Done()
	for {
		select {
		case <-m.loopDone:
			return
		case tx := <-m.newTxCh:
			m.handleNewTx(tx)
		}
	}
}

// requestSave runs on the debounce timer goroutine and hands the save
// back to the loop.
func (m *Manager) requestSave() {
	select {
	case m.saveCh <- struct{}{}:
	default:
	}
}

func (m *Manager) saveWalletData() {
	_ = m.dispatch(newSetWalletData(m.coin.Key(), m.provider.Data()))
	m.setUnconfirmedTxTracking()
}

// setUnconfirmedTxTracking replaces every confirmation subscription with
// one per transaction that is currently unconfirmed.
func (m *Manager) setUnconfirmedTxTracking() {
	m.dropConfirmTracking()

	tracker := m.provider.NetworkProvider().Tracker()
	for _, tx := range m.provider.Tx().UnconfirmedList() {
		sub := tracker.SubscribeTxConfirm(tx.TxID, m.confirmCh)
		if sub != nil {
			m.confirmSubs = append(m.confirmSubs, sub)
		}
	}
}

func (m *Manager) dropConfirmTracking() {
	for _, sub := range m.confirmSubs {
		sub.Unsubscribe()
	}
	m.confirmSubs = nil
}

func (m *Manager) putNewTx(tx *provider.WalletTransaction) {
	if tx == nil {
		return
	}
	m.provider.Tx().Add(tx)
}

func (m *Manager) handleConnect() {
	now := m.clock.Now()
	if !m.lastConnect.IsZero() && now.Sub(m.lastConnect) > m.reconnectThreshold {
		m.log.Debug("reconnected after %s, resyncing", now.Sub(m.lastConnect))
		m.triggerResync("reconnect")
	}
	m.lastConnect = now
}

func (m *Manager) handleNewTx(tx *provider.WalletTransaction) {
	if tx == nil || m.notifier == nil {
		return
	}

	amount := provider.CalculateTxBalance(m.provider.Balance(), tx)
	if amount.Sign() <= 0 {
		return
	}

	n := notify.NewTransactionNotification(m.coin, tx, amount)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_, err := m.notifier.Send(m.ctx, n)
		if err != nil {
			m.log.Error("notification for %s failed: %v", tx.TxID, err)
		}
		m.metrics.RecordNotification(err)
	}()
}
