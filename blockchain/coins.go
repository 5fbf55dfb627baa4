// Copyright (c) 2015-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Coins houses the unspent outputs of a single transaction along with the
// details the pool needs about where it came from.  A nil entry in Outputs
// marks an output that is spent or was never spendable.
type Coins struct {
	// Outputs are the transaction outputs indexed by output number.
	Outputs []*wire.TxOut

	// CoinBase is set when the outputs were created by a coinbase.
	CoinBase bool

	// Height is the height of the block that contains the transaction.
	Height int32
}

// NewCoinsFromTx returns the coins created by tx as if it were included in a
// block at the given height.  Provably unspendable outputs are left nil.
func NewCoinsFromTx(tx *wire.MsgTx, height int32) *Coins {
	coins := &Coins{
		Outputs:  make([]*wire.TxOut, len(tx.TxOut)),
		CoinBase: IsCoinBaseTx(tx),
		Height:   height,
	}
	for i, txOut := range tx.TxOut {
		if txscript.IsUnspendable(txOut.PkScript) {
			continue
		}
		coins.Outputs[i] = txOut
	}
	return coins
}

// IsAvailable returns whether the output at index n exists and is unspent.
func (c *Coins) IsAvailable(n uint32) bool {
	return c != nil && uint64(n) < uint64(len(c.Outputs)) &&
		c.Outputs[n] != nil
}

// IsCoinBase returns whether the coins were created by a coinbase.
func (c *Coins) IsCoinBase() bool {
	return c.CoinBase
}

// Output returns the unspent output at index n or nil when it is not
// available.
func (c *Coins) Output(n uint32) *wire.TxOut {
	if !c.IsAvailable(n) {
		return nil
	}
	return c.Outputs[n]
}

// Spend marks the output at index n as spent.  It returns false when the
// output was not available.
func (c *Coins) Spend(n uint32) bool {
	if !c.IsAvailable(n) {
		return false
	}
	c.Outputs[n] = nil
	return true
}

// IsPruned returns whether every output is spent.
func (c *Coins) IsPruned() bool {
	for _, txOut := range c.Outputs {
		if txOut != nil {
			return false
		}
	}
	return true
}

// Clone returns a copy of the coins whose spent state can be changed without
// affecting the original.  The outputs themselves are shared.
func (c *Coins) Clone() *Coins {
	if c == nil {
		return nil
	}
	outputs := make([]*wire.TxOut, len(c.Outputs))
	copy(outputs, c.Outputs)
	return &Coins{
		Outputs:  outputs,
		CoinBase: c.CoinBase,
		Height:   c.Height,
	}
}

// CoinView provides access to the unspent coins of transactions by id.
//
// AccessCoins returns nil when the transaction is unknown or fully spent.
// Callers must not modify the returned coins.
type CoinView interface {
	AccessCoins(hash *chainhash.Hash) *Coins
}

// CoinViewCache is a CoinView that holds coins in memory on top of an
// optional backing view.  Entries added or spent through the cache never
// reach the backing view.
//
// The cache is not safe for concurrent access.
type CoinViewCache struct {
	base    CoinView
	entries map[chainhash.Hash]*Coins
}

// Ensure CoinViewCache implements the CoinView interface.
var _ CoinView = (*CoinViewCache)(nil)

// NewCoinViewCache returns an empty cache over the passed view, which may be
// nil.
func NewCoinViewCache(base CoinView) *CoinViewCache {
	return &CoinViewCache{
		base:    base,
		entries: make(map[chainhash.Hash]*Coins),
	}
}

// AccessCoins returns the coins for the given transaction, checking the
// cache before the backing view.
func (view *CoinViewCache) AccessCoins(hash *chainhash.Hash) *Coins {
	if coins, ok := view.entries[*hash]; ok {
		if coins == nil || coins.IsPruned() {
			return nil
		}
		return coins
	}
	if view.base == nil {
		return nil
	}
	return view.base.AccessCoins(hash)
}

// HaveCoins returns whether the view knows unspent coins for the hash.
func (view *CoinViewCache) HaveCoins(hash *chainhash.Hash) bool {
	return view.AccessCoins(hash) != nil
}

// SetCoins replaces the cached coins for the hash.  Passing nil records the
// transaction as fully spent, hiding whatever the backing view holds.
func (view *CoinViewCache) SetCoins(hash *chainhash.Hash, coins *Coins) {
	view.entries[*hash] = coins
}

// AddTxOuts adds the outputs of tx to the view as if the transaction were
// included in a block at the given height.
func (view *CoinViewCache) AddTxOuts(tx *btcutil.Tx, height int32) {
	view.entries[*tx.Hash()] = NewCoinsFromTx(tx.MsgTx(), height)
	log.Tracef("Added outputs of %v at height %d to coin view", tx.Hash(),
		height)
}

// SpendOutput marks the referenced output as spent in the cache.  Coins that
// come from the backing view are copied first.  It returns false when the
// output was not available.
func (view *CoinViewCache) SpendOutput(op wire.OutPoint) bool {
	coins, ok := view.entries[op.Hash]
	if !ok {
		if view.base == nil {
			return false
		}
		coins = view.base.AccessCoins(&op.Hash).Clone()
		if coins == nil {
			return false
		}
		view.entries[op.Hash] = coins
	}
	return coins.Spend(op.Index)
}

// HaveInputs returns whether every input of tx refers to an available
// output.  A coinbase has no inputs to look up and always returns true.
func (view *CoinViewCache) HaveInputs(tx *wire.MsgTx) bool {
	return HaveInputs(view, tx)
}

// HaveInputs returns whether every input of tx refers to an output that is
// available in the view.
func HaveInputs(view CoinView, tx *wire.MsgTx) bool {
	if IsCoinBaseTx(tx) {
		return true
	}
	for _, txIn := range tx.TxIn {
		prevOut := &txIn.PreviousOutPoint
		coins := view.AccessCoins(&prevOut.Hash)
		if !coins.IsAvailable(prevOut.Index) {
			return false
		}
	}
	return true
}

// ValueIn returns the sum of the values of the outputs spent by tx.  Inputs
// that are not available in the view contribute nothing.
func ValueIn(view CoinView, tx *wire.MsgTx) btcutil.Amount {
	if IsCoinBaseTx(tx) {
		return 0
	}
	var total int64
	for _, txIn := range tx.TxIn {
		prevOut := &txIn.PreviousOutPoint
		txOut := view.AccessCoins(&prevOut.Hash).Output(prevOut.Index)
		if txOut == nil {
			continue
		}
		total += txOut.Value
	}
	return btcutil.Amount(total)
}

// IsCoinBaseTx determines whether or not a transaction is a coinbase.  A
// coinbase is a special transaction created by miners that has no inputs.
// This is represented in the block chain by a transaction with a single input
// that has a previous output transaction index set to the maximum value along
// with a zero hash.
func IsCoinBaseTx(msgTx *wire.MsgTx) bool {
	if len(msgTx.TxIn) != 1 {
		return false
	}

	prevOut := &msgTx.TxIn[0].PreviousOutPoint
	if prevOut.Index != wire.MaxPrevOutIndex || prevOut.Hash != zeroHash {
		return false
	}

	return true
}

// zeroHash is the zero value for a chainhash.Hash and is defined as a package
// level variable to avoid the need to create a new instance every time a check
// is needed.
var zeroHash chainhash.Hash
