package provider

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/event"

	"github.com/berrywallet/berrysync/internal/coin"
)

// Provider holds one coin's wallet data and network access.
type Provider interface {
	// NetworkProvider returns the provider's network access.
	NetworkProvider() NetworkProvider

	// SubscribeChange delivers an event every time provider state changes.
	SubscribeChange(ch chan<- ChangeEvent) event.Subscription

	// SubscribeNewTx delivers transactions the provider sees for the first time.
	SubscribeNewTx(ch chan<- *WalletTransaction) event.Subscription

	Tx() TxStore
	Address() AddressStore

	// Private derives the signing side of the wallet from a BIP39 seed.
	Private(seed []byte) (PrivateWallet, error)

	Updater() Updater
	Data() *WalletData
	Balance() *Balance

	// Destruct releases network connections and any background work.
	Destruct() error
}

// TxStore is the provider's transaction set.
type TxStore interface {
	// Add inserts or replaces a transaction by txid.
	Add(tx *WalletTransaction)

	// UnconfirmedList returns transactions that are not yet in a block.
	UnconfirmedList() []*WalletTransaction
}

// AddressStore lists the wallet's derived addresses.
type AddressStore interface {
	List() []WalletAddress
}

// Updater performs a full wallet resynchronization.
type Updater interface {
	Update(ctx context.Context) error
}

// NetworkProvider gives access to chain events.
type NetworkProvider interface {
	Tracker() Tracker

	// SubscribeNewBlock delivers every new chain tip.
	SubscribeNewBlock(ch chan<- *Block) event.Subscription

	// SubscribeAddrsTx delivers transactions touching any of the addresses.
	SubscribeAddrsTx(addresses []string, ch chan<- *WalletTransaction) event.Subscription
}

// Tracker follows the connection to the network and individual transactions.
type Tracker interface {
	// SubscribeConnect delivers an event each time the connection is (re)established.
	SubscribeConnect(ch chan<- ConnectEvent) event.Subscription

	// SubscribeTxConfirm delivers the transaction once it is included in a block.
	SubscribeTxConfirm(txid string, ch chan<- *WalletTransaction) event.Subscription
}

// PrivateWallet builds, signs and broadcasts transactions.
type PrivateWallet interface {
	CreateTransaction(ctx context.Context, to *coin.Address, value *big.Int, fee coin.FeeLevel) (*Transaction, error)

	// BroadcastTransaction submits tx and returns its txid.
	BroadcastTransaction(ctx context.Context, tx *Transaction) (string, error)

	// CalculateFee estimates the fee of sending value. to may be nil.
	CalculateFee(ctx context.Context, value *big.Int, to *coin.Address, fee coin.FeeLevel) (*big.Int, error)

	DeriveAddressNode(address WalletAddress) (AddressNode, error)
}

// AddressNode is the derived key pair behind one wallet address.
type AddressNode interface {
	// PrivateKey returns the key in the coin's export format (WIF or hex).
	PrivateKey() string
}
