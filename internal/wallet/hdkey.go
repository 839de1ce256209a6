package wallet

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck,gosec // HASH160 is defined with RIPEMD-160

	"github.com/berrywallet/berrysync/internal/coin"
)

// SeedSize is the length of a BIP39 seed.
const SeedSize = 64

// BIP44 path constants: m/44'/coin_type'/account'/change/index.
const (
	PurposeBIP44   = bip32.FirstHardenedChild + 44
	ChangeExternal = 0
	ChangeInternal = 1
)

// ErrPublicOnly is returned when a private key is requested from a neutered key.
var ErrPublicOnly = errors.New("key has no private part")

// HDKey represents a hierarchical deterministic key (BIP-32).
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master HD key from a 64-byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DeriveChild derives a child key at the given index.
// For hardened derivation, add bip32.FirstHardenedChild to the index.
func (k *HDKey) DeriveChild(index uint32) (*HDKey, error) {
	child, err := k.key.NewChildKey(index)
	if err != nil {
		return nil, fmt.Errorf("derive child %d: %w", index, err)
	}
	return &HDKey{key: child}, nil
}

// DerivePath derives a key along a sequence of indices.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	current := k
	for _, idx := range indices {
		child, err := current.DeriveChild(idx)
		if err != nil {
			return nil, err
		}
		current = child
	}
	return current, nil
}

// DeriveAddress derives the key at m/44'/coin_type'/account'/change/index.
func (k *HDKey) DeriveAddress(c coin.Coin, account, change, index uint32) (*HDKey, error) {
	return k.DerivePath(
		PurposeBIP44,
		bip32.FirstHardenedChild+c.CoinType(),
		bip32.FirstHardenedChild+account,
		change,
		index,
	)
}

// PrivateKeyBytes returns the raw 32-byte private key.
// Returns nil if this is a public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	// bip32 Key.Key is 33 bytes with a leading 0x00 for private keys.
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:]
	}
	return raw
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (k *HDKey) PublicKeyBytes() []byte {
	return k.key.PublicKey().Key
}

// IsPrivate returns true if this key contains a private key.
func (k *HDKey) IsPrivate() bool {
	return k.key.IsPrivate
}

// Neuter returns a public-key-only copy.
func (k *HDKey) Neuter() *HDKey {
	return &HDKey{key: k.key.PublicKey()}
}

// ExportPrivateKey formats the private key the way the coin's wallets
// import it: compressed WIF for UTXO coins, 0x-prefixed hex for ETH.
func (k *HDKey) ExportPrivateKey(c coin.Coin) (string, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return "", ErrPublicOnly
	}

	if c.ID().IsAccountBased() {
		return "0x" + hex.EncodeToString(priv), nil
	}

	version, ok := c.WIFVersion()
	if !ok {
		return "", fmt.Errorf("%w: %s", coin.ErrUnknownCoin, c.Key())
	}
	payload := make([]byte, 0, len(priv)+1)
	payload = append(payload, priv...)
	payload = append(payload, 0x01) // compressed public key
	return coin.EncodeBase58Check(version, payload), nil
}

// Address returns the receive address of this key on coin c: P2PKH for
// UTXO coins, the EIP-55 checksummed account for ETH.
func (k *HDKey) Address(c coin.Coin) (string, error) {
	pub := k.PublicKeyBytes()

	if c.ID().IsAccountBased() {
		pk, err := ethcrypto.DecompressPubkey(pub)
		if err != nil {
			return "", fmt.Errorf("decompress public key: %w", err)
		}
		return ethcrypto.PubkeyToAddress(*pk).Hex(), nil
	}

	version, ok := c.PubKeyHashVersion()
	if !ok {
		return "", fmt.Errorf("%w: %s", coin.ErrUnknownCoin, c.Key())
	}
	return coin.EncodeBase58Check(version, hash160(pub)), nil
}

func hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	h := ripemd160.New()
	_, _ = h.Write(sha[:])
	return h.Sum(nil)
}
