// Package provider defines the contracts of the wallet-data provider that a
// wallet manager coordinates, together with the entities it exchanges.
//
// Implementations live in the core wallet library. They deliver events to the
// channels passed to the Subscribe methods and must be safe for concurrent
// use: a manager reads provider state from its event loop and from the
// goroutines that call SendTransaction or CalculateFee.
package provider

import (
	"math/big"
	"time"

	"github.com/berrywallet/berrysync/internal/coin"
)

// TxInput is a spent output referenced by a transaction.
type TxInput struct {
	PrevTxID string   `json:"prev_txid"`
	PrevOut  uint32   `json:"prev_out"`
	Address  string   `json:"address"`
	Value    *big.Int `json:"value"`
}

// TxOutput is an output created by a transaction.
type TxOutput struct {
	Address string   `json:"address"`
	Value   *big.Int `json:"value"`
}

// WalletTransaction is a transaction touching at least one wallet address.
type WalletTransaction struct {
	TxID        string     `json:"txid"`
	BlockHeight int64      `json:"block_height"` // 0 while unconfirmed
	BlockHash   string     `json:"block_hash,omitempty"`
	Time        time.Time  `json:"time"`
	Fee         *big.Int   `json:"fee,omitempty"`
	Inputs      []TxInput  `json:"inputs"`
	Outputs     []TxOutput `json:"outputs"`
}

// IsConfirmed reports whether the transaction is included in a block.
func (t *WalletTransaction) IsConfirmed() bool {
	return t.BlockHeight > 0
}

// Block is a newly observed chain tip.
type Block struct {
	Height int64     `json:"height"`
	Hash   string    `json:"hash"`
	Time   time.Time `json:"time"`
}

// WalletAddress is one derived address of the wallet.
type WalletAddress struct {
	Address string `json:"address"`
	Index   uint32 `json:"index"`
	Change  bool   `json:"change"`
}

// Balance is the provider's view of the wallet balance.
// Addresses holds every owned address, keyed by address string.
type Balance struct {
	Confirmed   *big.Int            `json:"confirmed"`
	Unconfirmed *big.Int            `json:"unconfirmed"`
	Addresses   map[string]*big.Int `json:"addresses"`
}

// Owns reports whether address belongs to the wallet.
func (b *Balance) Owns(address string) bool {
	if b == nil {
		return false
	}
	_, ok := b.Addresses[address]
	return ok
}

// WalletData is the snapshot persisted in the application store.
type WalletData struct {
	Coin         coin.ID                       `json:"coin"`
	Testnet      bool                          `json:"testnet"`
	Balance      *Balance                      `json:"balance"`
	Addresses    []WalletAddress               `json:"addresses"`
	Transactions map[string]*WalletTransaction `json:"transactions"`
	LastBlock    int64                         `json:"last_block"`
	UpdatedAt    time.Time                     `json:"updated_at"`
}

// Transaction is a coin transaction built by a private wallet and not yet
// known to the network.
type Transaction struct {
	Raw     []byte     `json:"raw"`
	Inputs  []TxInput  `json:"inputs"`
	Outputs []TxOutput `json:"outputs"`
	Fee     *big.Int   `json:"fee"`
}

// ChangeEvent signals that provider state changed.
type ChangeEvent struct{}

// ConnectEvent signals that the network tracker (re)connected.
type ConnectEvent struct{}
