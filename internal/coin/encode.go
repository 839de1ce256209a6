package coin

import (
	"crypto/sha256"

	"github.com/mr-tron/base58"
)

// wifVersions are the private-key (WIF) version bytes per coin.
//
//nolint:gochecknoglobals // Static network parameters
var wifVersions = map[ID]byte{
	BTC:  0x80,
	BCH:  0x80,
	LTC:  0xb0,
	DASH: 0xcc,
}

// PubKeyHashVersion returns the P2PKH version byte of a UTXO coin.
func (c Coin) PubKeyHashVersion() (byte, bool) {
	table := mainnetVersions
	if c.testnet {
		table = testnetVersions
	}
	v, ok := table[c.id]
	if !ok {
		return 0, false
	}
	return v.pubKeyHash[0], true
}

// WIFVersion returns the WIF private-key version byte of a UTXO coin.
func (c Coin) WIFVersion() (byte, bool) {
	if c.testnet {
		_, ok := wifVersions[c.id]
		return 0xef, ok
	}
	v, ok := wifVersions[c.id]
	return v, ok
}

// EncodeBase58Check encodes version and payload with a double-SHA256 checksum.
func EncodeBase58Check(version byte, payload []byte) string {
	data := make([]byte, 0, 1+len(payload)+checksumLen)
	data = append(data, version)
	data = append(data, payload...)
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return base58.Encode(append(data, second[:checksumLen]...))
}
