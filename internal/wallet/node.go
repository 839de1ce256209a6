package wallet

import (
	"strconv"

	"github.com/berrywallet/berrysync/internal/coin"
	"github.com/berrywallet/berrysync/internal/provider"
)

// AddressNode is the derived key behind one wallet address.
// It satisfies provider.AddressNode.
type AddressNode struct {
	Coin    coin.Coin
	Path    string
	Address string
	key     *HDKey
}

var _ provider.AddressNode = (*AddressNode)(nil)

// DeriveAddressNode derives the key of a wallet address from a seed using
// the BIP44 account 0 layout.
func DeriveAddressNode(seed []byte, c coin.Coin, addr provider.WalletAddress) (*AddressNode, error) {
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}

	change := uint32(ChangeExternal)
	if addr.Change {
		change = ChangeInternal
	}

	key, err := master.DeriveAddress(c, 0, change, addr.Index)
	if err != nil {
		return nil, err
	}

	address, err := key.Address(c)
	if err != nil {
		return nil, err
	}

	return &AddressNode{
		Coin:    c,
		Path:    c.DerivationPath(0) + "/" + itoa(change) + "/" + itoa(addr.Index),
		Address: address,
		key:     key,
	}, nil
}

// PrivateKey returns the exported private key, or "" if it cannot be
// exported for the node's coin.
func (n *AddressNode) PrivateKey() string {
	s, err := n.key.ExportPrivateKey(n.Coin)
	if err != nil {
		return ""
	}
	return s
}

func itoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}
