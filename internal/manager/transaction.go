package manager

import (
	"context"
	"math/big"

	"github.com/berrywallet/berrysync/internal/coin"
	"github.com/berrywallet/berrysync/internal/crypto"
	"github.com/berrywallet/berrysync/internal/provider"
	walleterr "github.com/berrywallet/berrysync/pkg/errors"
)

// privateWallet derives the signing wallet from the controller's seed.
// The seed copy is zeroed before returning.
func (m *Manager) privateWallet() (provider.PrivateWallet, error) {
	if m.closed.Load() {
		return nil, walleterr.ErrManagerClosed
	}

	seed, err := m.controller.Seed()
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(seed)

	pw, err := m.provider.Private(seed)
	if err != nil {
		return nil, walleterr.Wrap(err, "deriving private wallet")
	}
	return pw, nil
}

// SendTransaction builds, signs and broadcasts a payment of value to
// address, then records the new unconfirmed transaction in the provider.
func (m *Manager) SendTransaction(ctx context.Context, address string, value *big.Int, fee coin.FeeLevel) (tx *provider.WalletTransaction, err error) {
	defer func() { m.metrics.RecordSend(err) }()

	pw, err := m.privateWallet()
	if err != nil {
		return nil, err
	}

	if value == nil || value.Sign() <= 0 {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidAmount, map[string]string{
			"value": value.String(),
		})
	}
	if fee == "" {
		fee = coin.DefaultFeeLevel
	}
	if !fee.IsValid() {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidFeeLevel, map[string]string{
			"fee": fee.String(),
		})
	}

	to, err := coin.ParseAddress(m.coin, address)
	if err != nil {
		m.log.Error("invalid destination address %q: %v", address, err)
		return nil, walleterr.WithCause(walleterr.ErrInvalidAddress, err)
	}

	raw, err := pw.CreateTransaction(ctx, to, value, fee)
	if err != nil {
		m.log.Error("create transaction failed: %v", err)
		return nil, walleterr.WithCause(walleterr.ErrCreateTransaction, err)
	}

	txid, err := pw.BroadcastTransaction(ctx, raw)
	if err != nil {
		m.log.Error("broadcast transaction failed: %v", err)
		return nil, walleterr.WithCause(walleterr.ErrSendTransaction, err)
	}

	tx = provider.CoinTxToWalletTx(txid, raw, m.clock.Now())
	m.provider.Tx().Add(tx)
	m.log.Debug("transaction %s sent", txid)

	return tx, nil
}

// CalculateFee estimates the fee of sending value. An empty or unparsable
// address is estimated without a destination.
func (m *Manager) CalculateFee(ctx context.Context, address string, value *big.Int, fee coin.FeeLevel) (est *big.Int, err error) {
	defer func() { m.metrics.RecordFeeEstimate(err) }()

	pw, err := m.privateWallet()
	if err != nil {
		return nil, err
	}
	if value == nil || value.Sign() <= 0 {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidAmount, map[string]string{"value": value.String()})
	}
	if fee == "" {
		fee = coin.DefaultFeeLevel
	}
	if !fee.IsValid() {
		return nil, walleterr.WithDetails(walleterr.ErrInvalidFeeLevel, map[string]string{"fee": fee.String()})
	}

	var to *coin.Address
	if address != "" {
		parsed, parseErr := coin.ParseAddress(m.coin, address)
		if parseErr != nil {
			m.log.Debug("fee estimate without destination, address %q: %v", address, parseErr)
		} else {
			to = parsed
		}
	}

	est, err = pw.CalculateFee(ctx, value, to, fee)
	if err != nil {
		m.log.Error("fee calculation failed: %v", err)
		return nil, walleterr.WithCause(walleterr.ErrFeeCalculation, err)
	}
	return est, nil
}

// PrivateKey exports the private key behind one wallet address in the
// coin's format.
func (m *Manager) PrivateKey(address provider.WalletAddress) (string, error) {
	pw, err := m.privateWallet()
	if err != nil {
		return "", err
	}

	node, err := pw.DeriveAddressNode(address)
	if err != nil {
		return "", walleterr.Wrap(err, "deriving key for %s", address.Address)
	}
	return node.PrivateKey(), nil
}
