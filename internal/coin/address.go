package coin

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"

	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

const (
	// checksumLen is the length of the Base58Check checksum in bytes.
	checksumLen = 4

	// hashLen is the length of a P2PKH/P2SH payload (HASH160).
	hashLen = 20
)

// Address is a destination parsed and validated against one coin's rules.
type Address struct {
	Coin    Coin
	Value   string
	Version byte   // Base58Check version byte, zero for account-based coins
	Hash    []byte // HASH160 for UTXO coins, 20-byte account for ETH
	Script  bool   // true for P2SH
}

// String returns the address as entered (checksummed for ETH).
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	return a.Value
}

// versions lists the accepted pubkey-hash and script-hash version bytes.
type versions struct {
	pubKeyHash []byte
	scriptHash []byte
}

//nolint:gochecknoglobals // Static network parameters
var (
	mainnetVersions = map[ID]versions{
		BTC:  {pubKeyHash: []byte{0x00}, scriptHash: []byte{0x05}},
		BCH:  {pubKeyHash: []byte{0x00}, scriptHash: []byte{0x05}},
		LTC:  {pubKeyHash: []byte{0x30}, scriptHash: []byte{0x32, 0x05}},
		DASH: {pubKeyHash: []byte{0x4c}, scriptHash: []byte{0x10}},
	}

	testnetVersions = map[ID]versions{
		BTC:  {pubKeyHash: []byte{0x6f}, scriptHash: []byte{0xc4}},
		BCH:  {pubKeyHash: []byte{0x6f}, scriptHash: []byte{0xc4}},
		LTC:  {pubKeyHash: []byte{0x6f}, scriptHash: []byte{0x3a, 0xc4}},
		DASH: {pubKeyHash: []byte{0x8c}, scriptHash: []byte{0x13}},
	}
)

// ParseAddress validates s against the coin's address rules.
// UTXO coins accept Base58Check P2PKH and P2SH addresses of the coin's network;
// ETH accepts 0x-prefixed hex, enforcing EIP-55 when the input is mixed case.
func ParseAddress(c Coin, s string) (*Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, walleterr.ErrInvalidAddress
	}

	switch c.ID() {
	case ETH:
		return parseETHAddress(c, s)
	case BTC, LTC, BCH, DASH:
		return parseBase58Address(c, s)
	default:
		return nil, walleterr.WithDetails(walleterr.ErrUnsupportedCoin, map[string]string{
			"coin": c.Key(),
		})
	}
}

func parseETHAddress(c Coin, s string) (*Address, error) {
	if !strings.HasPrefix(s, "0x") || !common.IsHexAddress(s) {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidAddress, map[string]string{
			"address": s,
			"coin":    c.Key(),
		})
	}

	addr := common.HexToAddress(s)
	body := s[2:]
	mixedCase := body != strings.ToLower(body) && body != strings.ToUpper(body)
	if mixedCase && addr.Hex() != s {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidChecksum, map[string]string{
			"address": s,
		})
	}

	return &Address{
		Coin:  c,
		Value: addr.Hex(),
		Hash:  addr.Bytes(),
	}, nil
}

func parseBase58Address(c Coin, s string) (*Address, error) {
	version, payload, err := decodeBase58Check(s)
	if err != nil {
		return nil, walleterr.WithDetails(err, map[string]string{
			"address": s,
			"coin":    c.Key(),
		})
	}

	table := mainnetVersions
	if c.IsTestnet() {
		table = testnetVersions
	}
	v := table[c.ID()]

	switch {
	case bytes.IndexByte(v.pubKeyHash, version) >= 0:
		return &Address{Coin: c, Value: s, Version: version, Hash: payload}, nil
	case bytes.IndexByte(v.scriptHash, version) >= 0:
		return &Address{Coin: c, Value: s, Version: version, Hash: payload, Script: true}, nil
	default:
		return nil, walleterr.WithDetails(walleterr.ErrUnsupportedVersion, map[string]string{
			"version": fmt.Sprintf("0x%02x", version),
			"coin":    c.Key(),
		})
	}
}

// decodeBase58Check decodes a Base58Check string into its version byte and payload.
func decodeBase58Check(s string) (byte, []byte, error) {
	decoded, err := base58.Decode(s)
	if err != nil {
		return 0, nil, walleterr.WithCause(walleterr.ErrInvalidAddress, err)
	}

	if len(decoded) != 1+hashLen+checksumLen {
		return 0, nil, walleterr.ErrInvalidAddress
	}

	data := decoded[:len(decoded)-checksumLen]
	checksum := decoded[len(decoded)-checksumLen:]

	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	if !bytes.Equal(checksum, second[:checksumLen]) {
		return 0, nil, walleterr.ErrInvalidChecksum
	}

	return data[0], data[1:], nil
}
