// Package coin provides coin descriptors, fee levels, amount helpers and
// per-coin address parsing.
package coin

import (
	"fmt"
	"strings"
)

// ID represents a supported coin.
type ID string

// Supported coin identifiers.
const (
	BTC  ID = "btc"
	LTC  ID = "ltc"
	BCH  ID = "bch"
	DASH ID = "dash"
	ETH  ID = "eth"
)

// BIP44 coin types for derivation paths.
const (
	CoinTypeBTC  uint32 = 0
	CoinTypeLTC  uint32 = 2
	CoinTypeDASH uint32 = 5
	CoinTypeETH  uint32 = 60
	CoinTypeBCH  uint32 = 145

	// CoinTypeTestnet is shared by every testnet per SLIP-44.
	CoinTypeTestnet uint32 = 1
)

// String returns the coin identifier string.
func (id ID) String() string {
	return string(id)
}

// IsValid returns true if the coin ID is a known coin.
func (id ID) IsValid() bool {
	switch id {
	case BTC, LTC, BCH, DASH, ETH:
		return true
	default:
		return false
	}
}

// CoinType returns the BIP44 coin type for a mainnet coin.
func (id ID) CoinType() uint32 {
	switch id {
	case BTC:
		return CoinTypeBTC
	case LTC:
		return CoinTypeLTC
	case DASH:
		return CoinTypeDASH
	case ETH:
		return CoinTypeETH
	case BCH:
		return CoinTypeBCH
	default:
		return 0
	}
}

// Unit returns the ticker symbol of the coin.
func (id ID) Unit() string {
	return strings.ToUpper(string(id))
}

// Decimals returns the number of decimal places of the smallest unit.
func (id ID) Decimals() int {
	if id == ETH {
		return 18
	}
	return 8
}

// IsAccountBased returns true for coins that do not use UTXOs.
func (id ID) IsAccountBased() bool {
	return id == ETH
}

// ParseID parses a string into a coin ID. Case is ignored.
func ParseID(s string) (ID, bool) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	return id, id.IsValid()
}

// AllCoins returns all known coin IDs.
func AllCoins() []ID {
	return []ID{BTC, LTC, BCH, DASH, ETH}
}

// Coin describes one tracked coin on one network.
type Coin struct {
	id      ID
	testnet bool
}

// New creates a coin descriptor.
func New(id ID, testnet bool) Coin {
	return Coin{id: id, testnet: testnet}
}

// ParseKey parses a coin key as produced by Coin.Key ("BTC", "BTCtest").
func ParseKey(key string) (Coin, error) {
	testnet := strings.HasSuffix(key, "test")
	id, ok := ParseID(strings.TrimSuffix(key, "test"))
	if !ok {
		return Coin{}, fmt.Errorf("%w: %q", ErrUnknownCoin, key)
	}
	return New(id, testnet), nil
}

// ID returns the coin identifier.
func (c Coin) ID() ID {
	return c.id
}

// IsTestnet reports whether the coin lives on a test network.
func (c Coin) IsTestnet() bool {
	return c.testnet
}

// Unit returns the ticker shown to users.
func (c Coin) Unit() string {
	return c.id.Unit()
}

// Key returns the key used for this coin's slot in the application state.
// Mainnet and testnet of the same coin have distinct keys.
func (c Coin) Key() string {
	if c.testnet {
		return c.id.Unit() + "test"
	}
	return c.id.Unit()
}

// Decimals returns the number of decimal places of the coin.
func (c Coin) Decimals() int {
	return c.id.Decimals()
}

// CoinType returns the BIP44 coin type, honoring the network.
func (c Coin) CoinType() uint32 {
	if c.testnet {
		return CoinTypeTestnet
	}
	return c.id.CoinType()
}

// DerivationPath returns the BIP44 account path prefix.
func (c Coin) DerivationPath(account uint32) string {
	return fmt.Sprintf("m/44'/%d'/%d'", c.CoinType(), account)
}

// String implements fmt.Stringer.
func (c Coin) String() string {
	return c.Key()
}
