// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/blockchain"
)

// BlockConnector defines the pool operations the chain drives when blocks
// are connected or disconnected.
type BlockConnector interface {
	// RemoveForBlock removes the transactions confirmed by a block at
	// the passed height along with anything conflicting with them and
	// returns the conflicts.
	RemoveForBlock(txns []*wire.MsgTx, height int32) []*btcutil.Tx

	// RemoveCoinbaseSpends removes transactions spending immature
	// coinbase outputs or outputs the view no longer knows.
	RemoveCoinbaseSpends(view blockchain.CoinView, poolHeight int32) []*btcutil.Tx

	// RemoveConflicts removes transactions spending any output the
	// passed transaction spends.
	RemoveConflicts(tx *wire.MsgTx) []*btcutil.Tx
}

// TxRelayer defines the pool operations used by transaction relay.
type TxRelayer interface {
	// AddUnchecked adds an already validated transaction to the pool.
	AddUnchecked(hash *chainhash.Hash, desc *TxDesc)

	// Lookup returns the pooled transaction with the passed hash.
	Lookup(hash *chainhash.Hash) (*btcutil.Tx, bool)

	// QueryHashes returns the hashes of all pooled transactions.
	QueryHashes() []chainhash.Hash

	// TransactionsUpdated returns a counter that changes every time the
	// pool changes.
	TransactionsUpdated() uint64

	// AddTransactionsUpdated adds n to the update counter.
	AddTransactionsUpdated(n uint64)
}

// Ensure the TxPool type implements the pool interfaces.
var (
	_ BlockConnector = (*TxPool)(nil)
	_ TxRelayer      = (*TxPool)(nil)
)
