// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// TestCheckValidPool ensures a consistent pool with long dependency chains
// passes the checks regardless of map iteration order.
func TestCheckValidPool(t *testing.T) {
	t.Parallel()

	h, outputs := newPoolHarness(t, 2)
	chain := h.CreateTxChain(t, outputs[0], 8)

	// Add the descendants first so parents are not always seen first.
	for i := len(chain) - 1; i >= 0; i-- {
		h.addUnchecked(chain[i], 0)
	}
	h.addUnchecked(h.CreateSignedTx(t, outputs[1:2], 2, 1000), 1000)

	for i := 0; i < 10; i++ {
		h.txPool.Check(h.view)
	}
}

// TestCheckDisabled ensures Check does nothing unless sanity checks are
// enabled.
func TestCheckDisabled(t *testing.T) {
	t.Parallel()

	h, outputs := newPoolHarness(t, 1)
	h.addUnchecked(h.CreateSignedTx(t, outputs, 1, 1000), 1000)
	h.txPool.cfg.SanityCheck = false
	h.txPool.totalTxSize++

	require.NotPanics(t, func() { h.txPool.Check(h.view) })
}

// TestCheckDetectsCorruption ensures every broken invariant makes Check panic
// with an AssertError.
func TestCheckDetectsCorruption(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		corrupt func(h *poolHarness, outputs []spendableOutput, parent, child *btcutil.Tx)
	}{{
		name: "size total",
		corrupt: func(h *poolHarness, _ []spendableOutput, _, _ *btcutil.Tx) {
			h.txPool.totalTxSize++
		},
	}, {
		name: "missing spend index entry",
		corrupt: func(h *poolHarness, _ []spendableOutput, _, child *btcutil.Tx) {
			delete(h.txPool.outpoints,
				child.MsgTx().TxIn[0].PreviousOutPoint)
		},
	}, {
		name: "spend index names wrong input",
		corrupt: func(h *poolHarness, _ []spendableOutput, parent, _ *btcutil.Tx) {
			prevOut := parent.MsgTx().TxIn[0].PreviousOutPoint
			h.txPool.outpoints[prevOut] = InPoint{
				Hash:  *parent.Hash(),
				Index: 5,
			}
		},
	}, {
		name: "stale spend index entry",
		corrupt: func(h *poolHarness, _ []spendableOutput, parent, _ *btcutil.Tx) {
			prevOut := wire.OutPoint{Hash: chainhash.Hash{0x03}}
			h.txPool.outpoints[prevOut] = InPoint{Hash: *parent.Hash()}
		},
	}, {
		name: "spend index names missing transaction",
		corrupt: func(h *poolHarness, _ []spendableOutput, _, _ *btcutil.Tx) {
			prevOut := wire.OutPoint{Hash: chainhash.Hash{0x04}}
			h.txPool.outpoints[prevOut] = InPoint{
				Hash: chainhash.Hash{0x05},
			}
		},
	}, {
		name: "input spent outside the pool",
		corrupt: func(h *poolHarness, outputs []spendableOutput, _, _ *btcutil.Tx) {
			h.view.SpendOutput(outputs[0].outPoint)
		},
	}, {
		name: "double spend inside the pool",
		corrupt: func(h *poolHarness, outputs []spendableOutput, _, _ *btcutil.Tx) {
			h.addUnchecked(h.CreateSignedTx(t, outputs[0:1], 1, 7000),
				7000)
		},
	}, {
		name: "spend of a missing parent output",
		corrupt: func(h *poolHarness, _ []spendableOutput, parent, _ *btcutil.Tx) {
			tx := h.CreateSignedTx(t, []spendableOutput{{
				outPoint: wire.OutPoint{Hash: *parent.Hash(), Index: 9},
				amount:   1000,
			}}, 1, 0)
			h.addUnchecked(tx, 0)
		},
	}}

	for _, test := range tests {
		h, outputs := newPoolHarness(t, 1)
		parent := h.CreateSignedTx(t, outputs, 1, 1000)
		child := h.CreateSignedTx(t, []spendableOutput{
			txOutToSpendableOut(parent, 0)}, 1, 1000)
		h.addUnchecked(parent, 1000)
		h.addUnchecked(child, 1000)
		h.txPool.Check(h.view)

		test.corrupt(h, outputs, parent, child)
		t.Run(test.name, func(t *testing.T) {
			requireAssertPanic(t, func() { h.txPool.Check(h.view) })
		})
	}
}

// TestCheckUnresolvableDependency ensures a pooled transaction whose pooled
// parent output can never be spent stops the dependency worklist.
func TestCheckUnresolvableDependency(t *testing.T) {
	t.Parallel()

	h, outputs := newPoolHarness(t, 1)
	nullData, err := txscript.NullDataScript([]byte("dsd"))
	require.NoError(t, err)

	// The parent's first output is provably unspendable, so it never
	// appears in the scratch view.
	parent, err := h.createTx(outputs, 1, 1000, func(tx *wire.MsgTx) {
		tx.TxOut = append([]*wire.TxOut{{PkScript: nullData}}, tx.TxOut...)
	})
	require.NoError(t, err)
	child := h.CreateSignedTx(t, []spendableOutput{{
		outPoint: wire.OutPoint{Hash: *parent.Hash(), Index: 0},
	}}, 1, 0)
	h.addUnchecked(parent, 1000)
	h.addUnchecked(child, 0)

	requireAssertPanic(t, func() { h.txPool.Check(h.view) })
}

// TestRemoveCoinbaseSpendsMissingCoins ensures a pooled transaction whose
// out-of-pool coins are unknown to the view fails the sanity check.
func TestRemoveCoinbaseSpendsMissingCoins(t *testing.T) {
	t.Parallel()

	h, outputs := newPoolHarness(t, 1)
	h.addUnchecked(h.CreateSignedTx(t, outputs, 1, 1000), 1000)
	h.view.SetCoins(&outputs[0].outPoint.Hash, nil)

	requireAssertPanic(t, func() {
		h.txPool.RemoveCoinbaseSpends(h.view, h.height)
	})

	h.txPool.cfg.SanityCheck = false
	require.Len(t, h.txPool.RemoveCoinbaseSpends(h.view, h.height), 1)
}
