package manager

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/event"

	"github.com/berrywallet/berrysync/internal/coin"
	"github.com/berrywallet/berrysync/internal/notify"
	"github.com/berrywallet/berrysync/internal/provider"
	"github.com/berrywallet/berrysync/internal/store"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

// mockLogWriter records log formats.
type mockLogWriter struct {
	mu            sync.Mutex
	debugMessages []string
	errorMessages []string
}

func newMockLogWriter() *mockLogWriter {
	return &mockLogWriter{}
}

func (m *mockLogWriter) Debug(format string, _ ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugMessages = append(m.debugMessages, format)
}

func (m *mockLogWriter) Error(format string, _ ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMessages = append(m.errorMessages, format)
}

func (m *mockLogWriter) errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.errorMessages...)
}

func (m *mockLogWriter) debugs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.debugMessages...)
}

// trackedSub counts live subscriptions so tests can see what was dropped.
type trackedSub struct {
	event.Subscription
	once   sync.Once
	active *atomic.Int32
}

func track(sub event.Subscription, active *atomic.Int32) event.Subscription {
	active.Add(1)
	return &trackedSub{Subscription: sub, active: active}
}

func (s *trackedSub) Unsubscribe() {
	s.once.Do(func() { s.active.Add(-1) })
	s.Subscription.Unsubscribe()
}

// mockTracker implements provider.Tracker.
type mockTracker struct {
	connectFeed event.Feed

	mu           sync.Mutex
	confirmFeeds map[string]*event.Feed
	subscribed   map[string]int
	active       atomic.Int32
}

func (t *mockTracker) SubscribeConnect(ch chan<- provider.ConnectEvent) event.Subscription {
	return track(t.connectFeed.Subscribe(ch), &t.active)
}

func (t *mockTracker) SubscribeTxConfirm(txid string, ch chan<- *provider.WalletTransaction) event.Subscription {
	t.mu.Lock()
	feed, ok := t.confirmFeeds[txid]
	if !ok {
		feed = new(event.Feed)
		t.confirmFeeds[txid] = feed
	}
	t.subscribed[txid]++
	t.mu.Unlock()
	return track(feed.Subscribe(ch), &t.active)
}

func (t *mockTracker) confirm(tx *provider.WalletTransaction) int {
	t.mu.Lock()
	feed := t.confirmFeeds[tx.TxID]
	t.mu.Unlock()
	if feed == nil {
		return 0
	}
	return feed.Send(tx)
}

func (t *mockTracker) subscriptions(txid string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.subscribed[txid]
}

// mockNetwork implements provider.NetworkProvider.
type mockNetwork struct {
	tracker    *mockTracker
	blockFeed  event.Feed
	addrTxFeed event.Feed

	mu           sync.Mutex
	addrsTracked []string
	active       atomic.Int32
}

func (n *mockNetwork) Tracker() provider.Tracker {
	return n.tracker
}

func (n *mockNetwork) SubscribeNewBlock(ch chan<- *provider.Block) event.Subscription {
	return track(n.blockFeed.Subscribe(ch), &n.active)
}

func (n *mockNetwork) SubscribeAddrsTx(addresses []string, ch chan<- *provider.WalletTransaction) event.Subscription {
	n.mu.Lock()
	n.addrsTracked = append([]string(nil), addresses...)
	n.mu.Unlock()
	return track(n.addrTxFeed.Subscribe(ch), &n.active)
}

// mockUpdater implements provider.Updater.
type mockUpdater struct {
	calls   atomic.Int32
	err     error
	release chan struct{} // when set, Update blocks until closed
}

func (u *mockUpdater) Update(ctx context.Context) error {
	u.calls.Add(1)
	if u.release != nil {
		select {
		case <-u.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return u.err
}

// mockPrivateWallet implements provider.PrivateWallet.
type mockPrivateWallet struct {
	mu           sync.Mutex
	createErr    error
	broadcastErr error
	feeErr       error
	txid         string
	fee          *big.Int

	createCalls int
	lastTo      *coin.Address
	lastFee     coin.FeeLevel
	feeTo       *coin.Address
	feeCalled   bool
}

func (w *mockPrivateWallet) CreateTransaction(_ context.Context, to *coin.Address, value *big.Int, fee coin.FeeLevel) (*provider.Transaction, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.createCalls++
	w.lastTo = to
	w.lastFee = fee
	if w.createErr != nil {
		return nil, w.createErr
	}
	return &provider.Transaction{
		Raw:     []byte{0xde, 0xad},
		Inputs:  []provider.TxInput{{PrevTxID: "prev", Address: "mine1", Value: new(big.Int).Add(value, big.NewInt(1000))}},
		Outputs: []provider.TxOutput{{Address: to.String(), Value: new(big.Int).Set(value)}},
		Fee:     big.NewInt(1000),
	}, nil
}

func (w *mockPrivateWallet) BroadcastTransaction(_ context.Context, _ *provider.Transaction) (string, error) {
	if w.broadcastErr != nil {
		return "", w.broadcastErr
	}
	return w.txid, nil
}

func (w *mockPrivateWallet) CalculateFee(_ context.Context, _ *big.Int, to *coin.Address, _ coin.FeeLevel) (*big.Int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.feeCalled = true
	w.feeTo = to
	if w.feeErr != nil {
		return nil, w.feeErr
	}
	return w.fee, nil
}

func (w *mockPrivateWallet) DeriveAddressNode(address provider.WalletAddress) (provider.AddressNode, error) {
	if address.Address == "" {
		return nil, walleterr.ErrInvalidAddress
	}
	return mockNode("key-for-" + address.Address), nil
}

type mockNode string

func (n mockNode) PrivateKey() string { return string(n) }

// mockProvider implements provider.Provider.
type mockProvider struct {
	network    *mockNetwork
	updater    *mockUpdater
	private    *mockPrivateWallet
	changeFeed event.Feed
	newTxFeed  event.Feed
	active     atomic.Int32

	mu          sync.Mutex
	txs         map[string]*provider.WalletTransaction
	addresses   []provider.WalletAddress
	balance     *provider.Balance
	seeds       [][]byte
	destructs   atomic.Int32
	destructErr error
}

func newMockProvider() *mockProvider {
	return &mockProvider{
		network: &mockNetwork{
			tracker: &mockTracker{
				confirmFeeds: make(map[string]*event.Feed),
				subscribed:   make(map[string]int),
			},
		},
		updater: &mockUpdater{},
		private: &mockPrivateWallet{txid: "sent-txid", fee: big.NewInt(2260)},
		txs:     make(map[string]*provider.WalletTransaction),
		addresses: []provider.WalletAddress{
			{Address: "mine1", Index: 0},
			{Address: "mine2", Index: 0, Change: true},
		},
		balance: &provider.Balance{
			Confirmed:   big.NewInt(0),
			Unconfirmed: big.NewInt(0),
			Addresses:   map[string]*big.Int{"mine1": big.NewInt(0), "mine2": big.NewInt(0)},
		},
	}
}

func (p *mockProvider) NetworkProvider() provider.NetworkProvider { return p.network }

func (p *mockProvider) SubscribeChange(ch chan<- provider.ChangeEvent) event.Subscription {
	return track(p.changeFeed.Subscribe(ch), &p.active)
}

func (p *mockProvider) SubscribeNewTx(ch chan<- *provider.WalletTransaction) event.Subscription {
	return track(p.newTxFeed.Subscribe(ch), &p.active)
}

func (p *mockProvider) Tx() provider.TxStore           { return mockTxStore{p} }
func (p *mockProvider) Address() provider.AddressStore { return mockAddressStore{p} }
func (p *mockProvider) Updater() provider.Updater      { return p.updater }
func (p *mockProvider) Balance() *provider.Balance     { return p.balance }

func (p *mockProvider) Private(seed []byte) (provider.PrivateWallet, error) {
	p.mu.Lock()
	p.seeds = append(p.seeds, seed)
	p.mu.Unlock()
	return p.private, nil
}

func (p *mockProvider) Data() *provider.WalletData {
	p.mu.Lock()
	defer p.mu.Unlock()
	txs := make(map[string]*provider.WalletTransaction, len(p.txs))
	for id, tx := range p.txs {
		txs[id] = tx
	}
	return &provider.WalletData{
		Coin:         coin.BTC,
		Balance:      p.balance,
		Addresses:    p.addresses,
		Transactions: txs,
	}
}

func (p *mockProvider) Destruct() error {
	p.destructs.Add(1)
	return p.destructErr
}

// putSilently stores tx without emitting events.
func (p *mockProvider) putSilently(tx *provider.WalletTransaction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.txs[tx.TxID] = tx
}

func (p *mockProvider) tx(id string) (*provider.WalletTransaction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tx, ok := p.txs[id]
	return tx, ok
}

func (p *mockProvider) liveSubscriptions() int32 {
	return p.active.Load() + p.network.active.Load() + p.network.tracker.active.Load()
}

type mockTxStore struct{ p *mockProvider }

func (s mockTxStore) Add(tx *provider.WalletTransaction) {
	s.p.mu.Lock()
	_, known := s.p.txs[tx.TxID]
	s.p.txs[tx.TxID] = tx
	s.p.mu.Unlock()

	if !known {
		s.p.newTxFeed.Send(tx)
	}
	s.p.changeFeed.Send(provider.ChangeEvent{})
}

func (s mockTxStore) UnconfirmedList() []*provider.WalletTransaction {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()
	var out []*provider.WalletTransaction
	for _, tx := range s.p.txs {
		if !tx.IsConfirmed() {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TxID < out[j].TxID })
	return out
}

type mockAddressStore struct{ p *mockProvider }

func (s mockAddressStore) List() []provider.WalletAddress {
	return s.p.addresses
}

// mockController implements Controller.
type mockController struct {
	mu      sync.Mutex
	seed    []byte
	actions []store.Action

	// stall, when set, parks the next block height dispatch until closed.
	stall   chan struct{}
	stalled chan struct{}
}

func newMockController() *mockController {
	return &mockController{seed: []byte{1, 2, 3, 4}}
}

func (c *mockController) DispatchStore(action store.Action) error {
	c.mu.Lock()
	c.actions = append(c.actions, action)
	stall, stalled := c.stall, c.stalled
	if _, ok := action.(store.SetBlockHeight); ok {
		c.stall, c.stalled = nil, nil
	} else {
		stall = nil
	}
	c.mu.Unlock()

	if stall != nil {
		close(stalled)
		<-stall
	}
	return nil
}

// stallNextBlock parks the next block height dispatch. The returned
// channel closes once the dispatch is parked; release unparks it.
func (c *mockController) stallNextBlock() (parked <-chan struct{}, release func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stall = make(chan struct{})
	c.stalled = make(chan struct{})
	stall := c.stall
	return c.stalled, func() { close(stall) }
}

func (c *mockController) Seed() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seed == nil {
		return nil, walleterr.ErrWalletLocked
	}
	return append([]byte(nil), c.seed...), nil
}

func (c *mockController) lock() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seed = nil
}

func (c *mockController) count(actionType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, a := range c.actions {
		if a.Type() == actionType {
			n++
		}
	}
	return n
}

func (c *mockController) last(actionType string) store.Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.actions) - 1; i >= 0; i-- {
		if c.actions[i].Type() == actionType {
			return c.actions[i]
		}
	}
	return nil
}

// mockSender implements notify.Sender.
type mockSender struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (s *mockSender) Send(_ context.Context, n notify.Notification) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, n)
	return "id", nil
}

func (s *mockSender) notifications() []notify.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Notification(nil), s.sent...)
}
