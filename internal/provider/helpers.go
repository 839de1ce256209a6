package provider

import (
	"math/big"
	"time"
)

// CalculateTxBalance returns the net effect of tx on the wallet: value
// received on owned addresses minus value spent from owned addresses.
// Positive amounts are incoming.
func CalculateTxBalance(balance *Balance, tx *WalletTransaction) *big.Int {
	net := new(big.Int)
	if balance == nil || tx == nil {
		return net
	}

	for _, out := range tx.Outputs {
		if out.Value != nil && balance.Owns(out.Address) {
			net.Add(net, out.Value)
		}
	}
	for _, in := range tx.Inputs {
		if in.Value != nil && balance.Owns(in.Address) {
			net.Sub(net, in.Value)
		}
	}

	return net
}

// CoinTxToWalletTx converts a freshly broadcast transaction into the wallet
// representation. The result is unconfirmed.
func CoinTxToWalletTx(txid string, tx *Transaction, seenAt time.Time) *WalletTransaction {
	wtx := &WalletTransaction{
		TxID: txid,
		Time: seenAt,
	}
	if tx == nil {
		return wtx
	}

	if tx.Fee != nil {
		wtx.Fee = new(big.Int).Set(tx.Fee)
	}
	wtx.Inputs = append([]TxInput(nil), tx.Inputs...)
	wtx.Outputs = append([]TxOutput(nil), tx.Outputs...)
	return wtx
}
