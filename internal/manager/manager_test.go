package manager

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berrywallet/berrysync/internal/coin"
	"github.com/berrywallet/berrysync/internal/metrics"
	"github.com/berrywallet/berrysync/internal/provider"
	"github.com/berrywallet/berrysync/internal/store"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
	quiet   = 150 * time.Millisecond

	genesisAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
)

//nolint:gochecknoglobals // fixed test epoch
var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	m       *Manager
	p       *mockProvider
	c       *mockController
	log     *mockLogWriter
	clk     *clock.TestClock
	sender  *mockSender
	metrics *metrics.Metrics
	height  int64
}

func newTestEnv(t *testing.T, opts ...func(*Config, *mockProvider)) *testEnv {
	t.Helper()

	env := &testEnv{
		p:       newMockProvider(),
		c:       newMockController(),
		log:     newMockLogWriter(),
		clk:     clock.NewTestClock(epoch),
		sender:  &mockSender{},
		metrics: &metrics.Metrics{},
	}
	cfg := &Config{
		Coin:           coin.New(coin.BTC, false),
		Provider:       env.p,
		Controller:     env.c,
		Notifier:       env.sender,
		Logger:         env.log,
		Clock:          env.clk,
		Metrics:        env.metrics,
		SaveDebounce:   20 * time.Millisecond,
		ResyncInterval: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(cfg, env.p)
	}

	m, err := New(cfg)
	require.NoError(t, err)
	env.m = m
	t.Cleanup(func() { _ = m.Destruct() })

	return env
}

// barrier sends a block and waits until the loop has dispatched it, so
// every event queued before has been handled.
func (e *testEnv) barrier(t *testing.T) {
	t.Helper()

	e.height++
	height := e.height
	e.p.network.blockFeed.Send(&provider.Block{Height: height})
	require.Eventually(t, func() bool {
		a, ok := e.c.last(store.SetBlockHeight{}.Type()).(store.SetBlockHeight)
		return ok && a.BlockHeight == height
	}, waitFor, tick)
}

// connect delivers a connect event and waits until it was handled.
func (e *testEnv) connect(t *testing.T) {
	t.Helper()

	e.p.network.tracker.connectFeed.Send(provider.ConnectEvent{})
	require.Eventually(t, func() bool { return len(e.m.connectCh) == 0 }, waitFor, tick)
	e.barrier(t)
}

func incomingTx(id string, value int64) *provider.WalletTransaction {
	return &provider.WalletTransaction{
		TxID:    id,
		Inputs:  []provider.TxInput{{Address: "stranger", Value: big.NewInt(value + 500)}},
		Outputs: []provider.TxOutput{{Address: "mine1", Value: big.NewInt(value)}},
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	require.ErrorIs(t, err, walleterr.ErrInvalidInput)

	_, err = New(&Config{Provider: newMockProvider()})
	require.ErrorIs(t, err, walleterr.ErrInvalidInput)

	_, err = New(&Config{Controller: newMockController()})
	require.ErrorIs(t, err, walleterr.ErrInvalidInput)
}

func TestNew_Subscribes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(_ *Config, p *mockProvider) {
		p.putSilently(&provider.WalletTransaction{TxID: "pending"})
		p.putSilently(&provider.WalletTransaction{TxID: "done", BlockHeight: 7})
	})

	assert.Equal(t, coin.BTC, env.m.Coin().ID())
	assert.Same(t, env.p, env.m.Provider())

	env.p.network.mu.Lock()
	tracked := env.p.network.addrsTracked
	env.p.network.mu.Unlock()
	assert.Equal(t, []string{"mine1", "mine2"}, tracked)

	assert.Equal(t, 1, env.p.network.tracker.subscriptions("pending"))
	assert.Equal(t, 0, env.p.network.tracker.subscriptions("done"))
}

func TestAddressTx_AddedToProvider(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	env.p.network.addrTxFeed.Send(incomingTx("addr-tx", 1000))
	require.Eventually(t, func() bool {
		_, ok := env.p.tx("addr-tx")
		return ok
	}, waitFor, tick)
}

func TestBlock_DispatchesHeight(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	env.p.network.blockFeed.Send(&provider.Block{Height: 840000})
	require.Eventually(t, func() bool {
		return env.c.count(store.SetBlockHeight{}.Type()) == 1
	}, waitFor, tick)

	action, ok := env.c.last(store.SetBlockHeight{}.Type()).(store.SetBlockHeight)
	require.True(t, ok)
	assert.Equal(t, "BTC", action.CoinKey)
	assert.Equal(t, int64(840000), action.BlockHeight)

	require.NoError(t, env.m.UpdateBlockInfo(nil))
}

func TestChange_DebouncedSave(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	saveType := store.SetWalletData{}.Type()

	for range 20 {
		env.p.changeFeed.Send(provider.ChangeEvent{})
	}

	require.Eventually(t, func() bool { return env.c.count(saveType) == 1 }, waitFor, tick)
	assert.Never(t, func() bool { return env.c.count(saveType) > 1 }, quiet, tick)

	action, ok := env.c.last(saveType).(store.SetWalletData)
	require.True(t, ok)
	assert.Equal(t, "BTC", action.WalletCoinKey)
	require.NotNil(t, action.WalletData)
	assert.Equal(t, coin.BTC, action.WalletData.Coin)
}

func TestSave_RetracksUnconfirmed(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(_ *Config, p *mockProvider) {
		p.putSilently(&provider.WalletTransaction{TxID: "u1"})
	})
	tracker := env.p.network.tracker

	// connect + u1
	assert.Equal(t, int32(2), tracker.active.Load())

	env.p.putSilently(&provider.WalletTransaction{TxID: "u2"})
	env.p.changeFeed.Send(provider.ChangeEvent{})

	require.Eventually(t, func() bool { return tracker.subscriptions("u2") == 1 }, waitFor, tick)
	assert.Equal(t, 2, tracker.subscriptions("u1"))
	assert.Equal(t, int32(3), tracker.active.Load())
}

func TestConfirmation_UpdatesProvider(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(_ *Config, p *mockProvider) {
		p.putSilently(&provider.WalletTransaction{TxID: "u1"})
	})

	delivered := env.p.network.tracker.confirm(&provider.WalletTransaction{TxID: "u1", BlockHeight: 12})
	require.Equal(t, 1, delivered)

	require.Eventually(t, func() bool {
		tx, ok := env.p.tx("u1")
		return ok && tx.IsConfirmed()
	}, waitFor, tick)

	// The next save stops tracking the confirmed transaction.
	require.Eventually(t, func() bool {
		return env.p.network.tracker.active.Load() == 1
	}, waitFor, tick)
}

func TestNewTx_NotifiesIncomingOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	env.p.newTxFeed.Send(incomingTx("in", 10000))
	require.Eventually(t, func() bool { return len(env.sender.notifications()) == 1 }, waitFor, tick)

	n := env.sender.notifications()[0]
	assert.Equal(t, "Incoming BTC transaction", n.Title)
	assert.Equal(t, "+0.0001 BTC received", n.Body)
	assert.Equal(t, "in", n.TxID)

	outgoing := &provider.WalletTransaction{
		TxID:    "out",
		Inputs:  []provider.TxInput{{Address: "mine1", Value: big.NewInt(5000)}},
		Outputs: []provider.TxOutput{{Address: "stranger", Value: big.NewInt(4000)}},
	}
	selfTransfer := &provider.WalletTransaction{
		TxID:    "self",
		Inputs:  []provider.TxInput{{Address: "mine1", Value: big.NewInt(100)}},
		Outputs: []provider.TxOutput{{Address: "mine2", Value: big.NewInt(100)}},
	}
	env.p.newTxFeed.Send(outgoing)
	env.p.newTxFeed.Send(selfTransfer)
	env.barrier(t)

	assert.Never(t, func() bool { return len(env.sender.notifications()) > 1 }, quiet, tick)
	assert.Equal(t, int64(1), env.metrics.Snapshot().NotificationsSent)
}

func TestNewTx_NotificationFailureLogged(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.sender.err = errors.New("no display")

	env.p.newTxFeed.Send(incomingTx("in", 1))
	require.Eventually(t, func() bool {
		return env.metrics.Snapshot().NotificationsFailed == 1
	}, waitFor, tick)
	assert.Contains(t, env.log.errors(), "notification for %s failed: %v")
}

func TestNewTx_NoNotifier(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(cfg *Config, _ *mockProvider) {
		cfg.Notifier = nil
	})

	env.p.newTxFeed.Send(incomingTx("in", 10000))
	env.barrier(t)
	assert.Zero(t, env.metrics.Snapshot().NotificationsSent)
}

func TestReconnect_ResyncsAfterThreshold(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	updates := func() int32 { return env.p.updater.calls.Load() }

	// First connection never resyncs.
	env.connect(t)
	assert.Never(t, func() bool { return updates() > 0 }, quiet, tick)

	env.clk.SetTime(epoch.Add(25 * time.Minute))
	env.connect(t)
	require.Eventually(t, func() bool { return updates() == 1 }, waitFor, tick)

	env.clk.SetTime(epoch.Add(35 * time.Minute))
	env.connect(t)
	assert.Never(t, func() bool { return updates() > 1 }, quiet, tick)

	// Exactly the threshold is not enough.
	env.clk.SetTime(epoch.Add(55 * time.Minute))
	env.connect(t)
	assert.Never(t, func() bool { return updates() > 1 }, quiet, tick)

	assert.Contains(t, env.log.debugs(), "resync (%s) finished")
}

func TestResync_Interval(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(cfg *Config, _ *mockProvider) {
		cfg.ResyncInterval = 15 * time.Minute
	})
	updates := func() int32 { return env.p.updater.calls.Load() }

	env.barrier(t)
	env.clk.SetTime(epoch.Add(15 * time.Minute))
	require.Eventually(t, func() bool { return updates() == 1 }, waitFor, tick)

	env.barrier(t)
	env.clk.SetTime(epoch.Add(30 * time.Minute))
	require.Eventually(t, func() bool { return updates() == 2 }, waitFor, tick)
}

func TestResetResyncTimer(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(cfg *Config, _ *mockProvider) {
		cfg.ResyncInterval = 15 * time.Minute
	})
	updates := func() int32 { return env.p.updater.calls.Load() }

	env.barrier(t)
	env.clk.SetTime(epoch.Add(10 * time.Minute))
	env.m.ResetResyncTimer()
	require.Eventually(t, func() bool { return len(env.m.rearmCh) == 0 }, waitFor, tick)
	env.barrier(t)

	env.clk.SetTime(epoch.Add(16 * time.Minute))
	assert.Never(t, func() bool { return updates() > 0 }, quiet, tick)

	env.clk.SetTime(epoch.Add(26 * time.Minute))
	require.Eventually(t, func() bool { return updates() == 1 }, waitFor, tick)
}

func TestResync_SkipsOverlap(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(_ *Config, p *mockProvider) {
		p.updater.release = make(chan struct{})
	})

	done := make(chan error, 1)
	go func() { done <- env.m.Resync(context.Background()) }()
	require.Eventually(t, func() bool { return env.p.updater.calls.Load() == 1 }, waitFor, tick)

	err := env.m.Resync(context.Background())
	require.ErrorIs(t, err, ErrResyncInProgress)

	close(env.p.updater.release)
	require.NoError(t, <-done)

	snap := env.metrics.Snapshot()
	assert.Equal(t, int64(1), snap.ResyncsTotal)
	assert.Equal(t, int64(1), snap.ResyncsSkipped)

	require.NoError(t, env.m.Resync(context.Background()))
}

func TestResync_BackgroundFailureLogged(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(_ *Config, p *mockProvider) {
		p.updater.err = errors.New("network down")
	})

	env.m.triggerResync("test")
	require.Eventually(t, func() bool {
		return env.metrics.Snapshot().ResyncErrors == 1
	}, waitFor, tick)
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"resync (%s) failed: %v"}, env.log.errors())
	}, waitFor, tick)
}

func TestSendTransaction(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	tx, err := env.m.SendTransaction(context.Background(), genesisAddress, big.NewInt(5000), "")
	require.NoError(t, err)
	require.NotNil(t, tx)

	assert.Equal(t, "sent-txid", tx.TxID)
	assert.False(t, tx.IsConfirmed())
	assert.Equal(t, epoch, tx.Time)
	assert.Equal(t, int64(1000), tx.Fee.Int64())

	stored, ok := env.p.tx("sent-txid")
	require.True(t, ok)
	assert.Same(t, tx, stored)

	assert.Equal(t, coin.FeeMedium, env.p.private.lastFee)
	assert.Equal(t, genesisAddress, env.p.private.lastTo.String())

	// The seed copy handed to the provider was wiped.
	require.Len(t, env.p.seeds, 1)
	assert.Equal(t, []byte{0, 0, 0, 0}, env.p.seeds[0])

	assert.Equal(t, int64(1), env.metrics.Snapshot().SendsTotal)
}

func TestSendTransaction_Errors(t *testing.T) {
	t.Parallel()

	errCreate := errors.New("insufficient funds")
	errBroadcast := errors.New("mempool rejected")

	tests := []struct {
		name    string
		setup   func(env *testEnv)
		address string
		value   *big.Int
		fee     coin.FeeLevel
		want    error
		cause   error
	}{
		{
			name:    "locked wallet",
			setup:   func(env *testEnv) { env.c.lock() },
			address: genesisAddress,
			value:   big.NewInt(1),
			want:    walleterr.ErrWalletLocked,
		},
		{
			name:    "invalid address",
			address: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNb",
			value:   big.NewInt(1),
			want:    walleterr.ErrInvalidAddress,
			cause:   walleterr.ErrInvalidChecksum,
		},
		{
			name:    "zero amount",
			address: genesisAddress,
			value:   big.NewInt(0),
			want:    walleterr.ErrInvalidAmount,
		},
		{
			name:    "unknown fee level",
			address: genesisAddress,
			value:   big.NewInt(1),
			fee:     "ludicrous",
			want:    walleterr.ErrInvalidFeeLevel,
		},
		{
			name:    "create fails",
			setup:   func(env *testEnv) { env.p.private.createErr = errCreate },
			address: genesisAddress,
			value:   big.NewInt(1),
			want:    walleterr.ErrCreateTransaction,
			cause:   errCreate,
		},
		{
			name:    "broadcast fails",
			setup:   func(env *testEnv) { env.p.private.broadcastErr = errBroadcast },
			address: genesisAddress,
			value:   big.NewInt(1),
			want:    walleterr.ErrSendTransaction,
			cause:   errBroadcast,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			if tt.setup != nil {
				tt.setup(env)
			}

			tx, err := env.m.SendTransaction(context.Background(), tt.address, tt.value, tt.fee)
			require.ErrorIs(t, err, tt.want)
			if tt.cause != nil {
				require.ErrorIs(t, err, tt.cause)
			}
			assert.Nil(t, tx)

			_, stored := env.p.tx("sent-txid")
			assert.False(t, stored)
			assert.Equal(t, int64(1), env.metrics.Snapshot().SendErrors)
		})
	}
}

func TestSendTransaction_InvalidAddressSkipsCreate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	_, err := env.m.SendTransaction(context.Background(), "bogus", big.NewInt(1), coin.FeeHigh)
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)
	assert.Zero(t, env.p.private.createCalls)
	assert.Equal(t, []string{"invalid destination address %q: %v"}, env.log.errors())
}

func TestCalculateFee(t *testing.T) {
	t.Parallel()

	t.Run("with destination", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		fee, err := env.m.CalculateFee(context.Background(), genesisAddress, big.NewInt(1000), coin.FeeLow)
		require.NoError(t, err)
		assert.Equal(t, int64(2260), fee.Int64())
		require.NotNil(t, env.p.private.feeTo)
		assert.Equal(t, genesisAddress, env.p.private.feeTo.String())
	})

	t.Run("empty address", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		_, err := env.m.CalculateFee(context.Background(), "", big.NewInt(1000), "")
		require.NoError(t, err)
		assert.True(t, env.p.private.feeCalled)
		assert.Nil(t, env.p.private.feeTo)
	})

	t.Run("unparsable address estimates without destination", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		_, err := env.m.CalculateFee(context.Background(), "garbage", big.NewInt(1000), "")
		require.NoError(t, err)
		assert.Nil(t, env.p.private.feeTo)
		assert.Contains(t, env.log.debugs(), "fee estimate without destination, address %q: %v")
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		cause := errors.New("no utxos")
		env.p.private.feeErr = cause

		_, err := env.m.CalculateFee(context.Background(), "", big.NewInt(1000), "")
		require.ErrorIs(t, err, walleterr.ErrFeeCalculation)
		require.ErrorIs(t, err, cause)
		assert.Equal(t, int64(1), env.metrics.Snapshot().FeeEstimateErrors)
	})

	t.Run("rejects bad input before estimating", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)

		_, err := env.m.CalculateFee(context.Background(), "", nil, "")
		require.ErrorIs(t, err, walleterr.ErrInvalidAmount)
		_, err = env.m.CalculateFee(context.Background(), "", big.NewInt(0), "")
		require.ErrorIs(t, err, walleterr.ErrInvalidAmount)
		_, err = env.m.CalculateFee(context.Background(), "", big.NewInt(-5), "")
		require.ErrorIs(t, err, walleterr.ErrInvalidAmount)
		_, err = env.m.CalculateFee(context.Background(), "", big.NewInt(1000), coin.FeeLevel("turbo"))
		require.ErrorIs(t, err, walleterr.ErrInvalidFeeLevel)

		assert.False(t, env.p.private.feeCalled)
	})

	t.Run("locked", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.c.lock()

		_, err := env.m.CalculateFee(context.Background(), "", big.NewInt(1000), "")
		require.ErrorIs(t, err, walleterr.ErrWalletLocked)
	})
}

func TestPrivateKey(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	key, err := env.m.PrivateKey(provider.WalletAddress{Address: "mine1"})
	require.NoError(t, err)
	assert.Equal(t, "key-for-mine1", key)

	_, err = env.m.PrivateKey(provider.WalletAddress{})
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)

	env.c.lock()
	_, err = env.m.PrivateKey(provider.WalletAddress{Address: "mine1"})
	require.ErrorIs(t, err, walleterr.ErrWalletLocked)
}

func TestDestruct(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(_ *Config, p *mockProvider) {
		p.putSilently(&provider.WalletTransaction{TxID: "u1"})
	})
	require.Positive(t, env.p.liveSubscriptions())

	require.NoError(t, env.m.Destruct())
	require.NoError(t, env.m.Destruct())

	assert.Equal(t, int32(1), env.p.destructs.Load())
	assert.Zero(t, env.p.liveSubscriptions())

	_, err := env.m.SendTransaction(context.Background(), genesisAddress, big.NewInt(1), "")
	require.ErrorIs(t, err, walleterr.ErrManagerClosed)
	_, err = env.m.CalculateFee(context.Background(), "", big.NewInt(1), "")
	require.ErrorIs(t, err, walleterr.ErrManagerClosed)
	require.ErrorIs(t, env.m.Resync(context.Background()), walleterr.ErrManagerClosed)

	env.m.ResetResyncTimer()
	env.m.triggerResync("late")
	assert.Zero(t, env.p.updater.calls.Load())

	// Events after destruct reach nobody.
	assert.Zero(t, env.p.network.blockFeed.Send(&provider.Block{Height: 1}))
}

func TestDestruct_AfterAddressTxBurst(t *testing.T) {
	t.Parallel()

	for i := range 8 {
		env := newTestEnv(t)

		parked, release := env.c.stallNextBlock()
		env.p.network.blockFeed.Send(&provider.Block{Height: int64(i + 1)})
		select {
		case <-parked:
		case <-time.After(waitFor):
			t.Fatal("block dispatch never reached the controller")
		}

		// Adding the queued tx emits change events into a full buffer.
		env.p.network.addrTxFeed.Send(incomingTx("burst", 1000))
		for range eventBuffer {
			env.p.changeFeed.Send(provider.ChangeEvent{})
		}
		release()

		done := make(chan error, 1)
		go func() { done <- env.m.Destruct() }()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(waitFor):
			t.Fatalf("round %d: Destruct did not return", i)
		}
	}
}

func TestDestruct_CancelsRunningResync(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(_ *Config, p *mockProvider) {
		p.updater.release = make(chan struct{})
	})

	env.m.triggerResync("test")
	require.Eventually(t, func() bool { return env.p.updater.calls.Load() == 1 }, waitFor, tick)

	require.NoError(t, env.m.Destruct())
	assert.Equal(t, int64(1), env.metrics.Snapshot().ResyncErrors)
}

func TestDestruct_ProviderError(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, func(_ *Config, p *mockProvider) {
		p.destructErr = errors.New("close failed")
	})

	err := env.m.Destruct()
	require.EqualError(t, err, "close failed")
	require.EqualError(t, env.m.Destruct(), "close failed")
}

func TestDestruct_ZeroValue(t *testing.T) {
	t.Parallel()

	var m Manager
	require.NoError(t, m.Destruct())
}
