// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/blockchain"
)

const (
	// UnminedHeight is the height used for the "block" height field of the
	// contextual transaction information provided in a transaction store
	// when it has not yet been mined into a block.
	UnminedHeight = math.MaxInt32

	// MinHighPriority is the minimum priority value that allows a
	// transaction to be considered high priority.
	MinHighPriority = btcutil.SatoshiPerBitcoin * 144.0 / 250

	// txInOverhead is the constant overhead for a txin: 36 bytes for the
	// previous outpoint, 4 bytes for the sequence and 1 byte for the
	// signature script length.
	txInOverhead = 41

	// maxSigScriptAllowance is the number of signature script bytes of
	// each input that do not count against priority.  It covers a
	// pay-to-script-hash redemption with a compressed pubkey and a
	// maximum length signature:
	// [OP_DATA_73 <73-byte sig> + OP_DATA_35 + {OP_DATA_33
	// <33 byte compressed pubkey> + OP_CHECKSIG}]
	maxSigScriptAllowance = 110
)

// Policy houses the policy (configuration parameters) which is used to control
// the selection of transactions for block templates.
type Policy struct {
	// BlockMinSize is the minimum block size in bytes to be used when
	// generating a block template.
	BlockMinSize uint32

	// BlockMaxSize is the maximum block size in bytes to be used when
	// generating a block template.
	BlockMaxSize uint32

	// BlockPrioritySize is the size in bytes for high-priority / low-fee
	// transactions to be used when generating a block template.
	BlockPrioritySize uint32

	// TxMinFreeFee is the minimum fee in satoshi/1000 bytes that is
	// required for a transaction to be treated as free for mining purposes
	// (block template generation).
	TxMinFreeFee btcutil.Amount
}

// AllowFree returns whether or not a transaction with the passed priority is
// high enough to be relayed and mined without a fee.
func AllowFree(priority float64) bool {
	return priority > MinHighPriority
}

// calcInputValueAge is a helper function used to calculate the input age of
// a transaction.  The input age for a txin is the number of confirmations
// since the referenced txout multiplied by its output value.  The total input
// age is the sum of this value for each txin.  Any inputs to the transaction
// which are currently in the mempool and hence not mined into a block yet,
// contribute no additional input age to the transaction.
func calcInputValueAge(tx *wire.MsgTx, view blockchain.CoinView, nextBlockHeight int32) float64 {
	var totalInputAge float64
	for _, txIn := range tx.TxIn {
		// Don't attempt to accumulate the total input age if the
		// referenced transaction output doesn't exist.
		prevOut := &txIn.PreviousOutPoint
		coins := view.AccessCoins(&prevOut.Hash)
		txOut := coins.Output(prevOut.Index)
		if txOut == nil {
			continue
		}

		// Inputs with dependencies currently in the mempool have their
		// block height set to a special constant.  Their input age
		// should computed as zero since their parent hasn't made it
		// into a block yet.
		var inputAge int32
		if coins.Height != UnminedHeight {
			inputAge = nextBlockHeight - coins.Height
		}

		// Sum the input value times age.
		totalInputAge += float64(txOut.Value * int64(inputAge))
	}

	return totalInputAge
}

// CalcPriority returns a transaction priority given a transaction and the sum
// of each of its input values multiplied by their age (# of confirmations).
// Thus, the final formula for the priority is:
// sum(inputValue * inputAge) / CalcModifiedSize(tx)
func CalcPriority(tx *wire.MsgTx, view blockchain.CoinView, nextBlockHeight int32) float64 {
	modifiedSize := CalcModifiedSize(tx, int64(tx.SerializeSize()))
	inputValueAge := calcInputValueAge(tx, view, nextBlockHeight)
	return inputValueAge / float64(modifiedSize)
}

// CalcModifiedSize returns the size of tx that counts against its priority.
// In order to encourage spending multiple old unspent transaction outputs
// thereby reducing the total set, the constant overhead of each input and
// enough bytes of its signature script to cover a pay-to-script-hash
// redemption with a compressed pubkey are subtracted from txSize.  An input's
// allowance is only subtracted while the remaining size exceeds it, and the
// result is never below one byte.
func CalcModifiedSize(tx *wire.MsgTx, txSize int64) int64 {
	size := txSize
	for _, txIn := range tx.TxIn {
		allowance := int64(txInOverhead +
			min(maxSigScriptAllowance, len(txIn.SignatureScript)))
		if size > allowance {
			size -= allowance
		}
	}
	return max(size, 1)
}
