// Package store holds the application state that wallet managers write to:
// per-coin block heights and per-coin wallet snapshots. Every mutation goes
// through Dispatch and is persisted before subscribers are told about it.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/event"

	"github.com/berrywallet/berrysync/internal/provider"
	"github.com/berrywallet/berrysync/internal/storage"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

var (
	coinPrefix   = []byte("coin/")
	walletPrefix = []byte("wallet/")
)

// subscriberBuffer is how many changes a subscriber may lag behind before
// further changes to it are dropped.
const subscriberBuffer = 64

// ErrUnknownAction is returned by Dispatch for action types it cannot reduce.
var ErrUnknownAction = errors.New("unknown store action")

// CoinState is the per-coin chain state.
type CoinState struct {
	BlockHeight int64     `json:"block_height"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// State is a point-in-time copy of the whole store.
type State struct {
	Coins   map[string]CoinState            `json:"coins"`
	Wallets map[string]*provider.WalletData `json:"wallets"`
}

// Store reduces actions into state and persists it.
type Store struct {
	mu      sync.Mutex
	coins   map[string]CoinState
	wallets map[string][]byte // encoded WalletData, decoded on read

	coinDB   *storage.PrefixDB
	walletDB *storage.PrefixDB
	now      func() time.Time

	subsMu  sync.Mutex
	subs    map[chan Change]struct{}
	dropped atomic.Uint64
}

// Open loads any persisted state from db.
func Open(db storage.DB) (*Store, error) {
	s := &Store{
		coins:    make(map[string]CoinState),
		wallets:  make(map[string][]byte),
		coinDB:   storage.NewPrefixDB(db, coinPrefix),
		walletDB: storage.NewPrefixDB(db, walletPrefix),
		now:      time.Now,
		subs:     make(map[chan Change]struct{}),
	}

	err := s.coinDB.ForEach(nil, func(key, value []byte) error {
		var cs CoinState
		if err := json.Unmarshal(value, &cs); err != nil {
			return fmt.Errorf("decode coin state %s: %w", key, err)
		}
		s.coins[string(key)] = cs
		return nil
	})
	if err != nil {
		return nil, walleterr.WithCause(walleterr.ErrStoreFailure, err)
	}

	err = s.walletDB.ForEach(nil, func(key, value []byte) error {
		if !json.Valid(value) {
			return fmt.Errorf("decode wallet data %s: invalid json", key)
		}
		s.wallets[string(key)] = value
		return nil
	})
	if err != nil {
		return nil, walleterr.WithCause(walleterr.ErrStoreFailure, err)
	}

	return s, nil
}

// Dispatch applies action, persists the affected record and notifies
// subscribers. It never waits on a subscriber: each one has its own queue,
// and a change that does not fit a full queue is dropped for that
// subscriber only.
func (s *Store) Dispatch(action Action) error {
	change, err := s.apply(action)
	if err != nil {
		return err
	}
	s.publish(change)
	return nil
}

func (s *Store) publish(change Change) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for queue := range s.subs {
		select {
		case queue <- change:
		default:
			s.dropped.Add(1)
		}
	}
}

// DroppedChanges reports how many changes were discarded because a
// subscriber's queue was full.
func (s *Store) DroppedChanges() uint64 {
	return s.dropped.Load()
}

func (s *Store) apply(action Action) (Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch a := action.(type) {
	case SetBlockHeight:
		cs := CoinState{BlockHeight: a.BlockHeight, UpdatedAt: s.now()}
		raw, err := json.Marshal(cs)
		if err != nil {
			return Change{}, walleterr.WithCause(walleterr.ErrStoreFailure, err)
		}
		if err := s.coinDB.Put([]byte(a.CoinKey), raw); err != nil {
			return Change{}, walleterr.WithCause(walleterr.ErrStoreFailure, err)
		}
		s.coins[a.CoinKey] = cs
		return Change{Action: a.Type(), CoinKey: a.CoinKey}, nil

	case SetWalletData:
		raw, err := json.Marshal(a.WalletData)
		if err != nil {
			return Change{}, walleterr.WithCause(walleterr.ErrStoreFailure, err)
		}
		if err := s.walletDB.Put([]byte(a.WalletCoinKey), raw); err != nil {
			return Change{}, walleterr.WithCause(walleterr.ErrStoreFailure, err)
		}
		s.wallets[a.WalletCoinKey] = raw
		return Change{Action: a.Type(), CoinKey: a.WalletCoinKey}, nil

	default:
		return Change{}, fmt.Errorf("%w: %T", ErrUnknownAction, action)
	}
}

// BlockHeight returns the last block height recorded for coinKey.
func (s *Store) BlockHeight(coinKey string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cs, ok := s.coins[coinKey]
	return cs.BlockHeight, ok
}

// WalletData returns a copy of the wallet snapshot stored for coinKey.
func (s *Store) WalletData(coinKey string) (*provider.WalletData, bool) {
	s.mu.Lock()
	raw, ok := s.wallets[coinKey]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	wd, err := decodeWalletData(raw)
	if err != nil {
		return nil, false
	}
	return wd, true
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Coins:   make(map[string]CoinState, len(s.coins)),
		Wallets: make(map[string]*provider.WalletData, len(s.wallets)),
	}
	for k, v := range s.coins {
		st.Coins[k] = v
	}
	for k, raw := range s.wallets {
		if wd, err := decodeWalletData(raw); err == nil {
			st.Wallets[k] = wd
		}
	}
	return st
}

// Subscribe delivers a Change to ch after every successful Dispatch, in
// dispatch order. A forwarding goroutine feeds ch until the subscription
// is closed.
func (s *Store) Subscribe(ch chan<- Change) event.Subscription {
	queue := make(chan Change, subscriberBuffer)

	s.subsMu.Lock()
	s.subs[queue] = struct{}{}
	s.subsMu.Unlock()

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer func() {
			s.subsMu.Lock()
			delete(s.subs, queue)
			s.subsMu.Unlock()
		}()

		for {
			select {
			case <-quit:
				return nil
			case change := <-queue:
				select {
				case ch <- change:
				case <-quit:
					return nil
				}
			}
		}
	})
}

func decodeWalletData(raw []byte) (*provider.WalletData, error) {
	var wd provider.WalletData
	if err := json.Unmarshal(raw, &wd); err != nil {
		return nil, err
	}
	return &wd, nil
}
