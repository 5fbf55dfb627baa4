// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/fees"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/mining"
)

// TxDesc is a descriptor containing a transaction in the pool along with the
// metadata computed when it was accepted.  Descriptors are never modified
// once created.
type TxDesc struct {
	tx               *btcutil.Tx
	fee              btcutil.Amount
	txSize           int64
	modifiedSize     int64
	added            time.Time
	height           int32
	startingPriority float64
	valueIn          btcutil.Amount
}

// Ensure TxDesc can be reported to the fee estimator.
var _ fees.ConfirmedEntry = (*TxDesc)(nil)

// NewTxDesc returns a descriptor for tx paying the passed fee that entered
// the pool at the given time and chain height with the given priority.
func NewTxDesc(tx *btcutil.Tx, fee btcutil.Amount, added time.Time,
	startingPriority float64, height int32) *TxDesc {

	msgTx := tx.MsgTx()
	txSize := int64(msgTx.SerializeSize())

	var valueOut int64
	for _, txOut := range msgTx.TxOut {
		valueOut += txOut.Value
	}

	return &TxDesc{
		tx:               tx,
		fee:              fee,
		txSize:           txSize,
		modifiedSize:     mining.CalcModifiedSize(msgTx, txSize),
		added:            added,
		height:           height,
		startingPriority: startingPriority,
		valueIn:          btcutil.Amount(valueOut) + fee,
	}
}

// Tx returns the transaction.
func (d *TxDesc) Tx() *btcutil.Tx {
	return d.tx
}

// Fee returns the absolute fee the transaction pays.
func (d *TxDesc) Fee() btcutil.Amount {
	return d.fee
}

// TxSize returns the serialized size of the transaction.
func (d *TxDesc) TxSize() int64 {
	return d.txSize
}

// ModifiedSize returns the size used for priority calculations.
func (d *TxDesc) ModifiedSize() int64 {
	return d.modifiedSize
}

// Time returns when the transaction entered the pool.
func (d *TxDesc) Time() time.Time {
	return d.added
}

// Height returns the chain height when the transaction entered the pool.
func (d *TxDesc) Height() int32 {
	return d.height
}

// StartingPriority returns the priority at Height.
func (d *TxDesc) StartingPriority() float64 {
	return d.startingPriority
}

// FeeRate returns the fee paid per 1000 bytes.
func (d *TxDesc) FeeRate() fees.FeeRate {
	return fees.NewFeeRateFromFee(d.fee, d.txSize)
}

// ValueIn returns the total value of the spent outputs, that is the value of
// the outputs plus the fee.
func (d *TxDesc) ValueIn() btcutil.Amount {
	return d.valueIn
}

// GetPriority returns the priority of the transaction at currentHeight.  The
// spent coins age by one block per block, so priority grows by the input
// value over the modified size for every block since the entry was added.
func (d *TxDesc) GetPriority(currentHeight int32) float64 {
	deltaPriority := float64(currentHeight-d.height) *
		float64(d.valueIn) / float64(d.modifiedSize)
	return d.startingPriority + deltaPriority
}
