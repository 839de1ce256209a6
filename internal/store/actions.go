package store

import "github.com/berrywallet/berrysync/internal/provider"

// Action is a state transition accepted by Dispatch.
type Action interface {
	// Type names the action in logs and change events.
	Type() string
}

// SetBlockHeight records the latest chain height seen for a coin.
type SetBlockHeight struct {
	CoinKey     string
	BlockHeight int64
}

// Type implements Action.
func (SetBlockHeight) Type() string { return "coin/setBlockHeight" }

// SetWalletData replaces the persisted wallet snapshot of a coin.
type SetWalletData struct {
	WalletCoinKey string
	WalletData    *provider.WalletData
}

// Type implements Action.
func (SetWalletData) Type() string { return "wallet/setWalletData" }

// Change is delivered to subscribers after an action was applied and
// persisted.
type Change struct {
	Action  string
	CoinKey string
}
