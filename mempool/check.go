// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/blockchain"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/fees"
)

// checkSpendHeight is the height the outputs of pooled transactions are
// given in the scratch view built by Check.
const checkSpendHeight = 1000000

// assertf panics with an AssertError describing a broken invariant.
func assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(AssertError(fmt.Sprintf(format, args...)))
	}
}

// checkSpend asserts that tx can spend its inputs from the scratch view
// without creating value, then applies it to the view.
func checkSpend(view *blockchain.CoinViewCache, tx *btcutil.Tx) {
	msgTx := tx.MsgTx()
	assertf(view.HaveInputs(msgTx), "inputs of %v are not available",
		tx.Hash())

	valueIn := blockchain.ValueIn(view, msgTx)
	var valueOut btcutil.Amount
	for _, txOut := range msgTx.TxOut {
		valueOut += btcutil.Amount(txOut.Value)
	}
	assertf(fees.MoneyRange(valueIn) && fees.MoneyRange(valueOut),
		"value of %v is out of range", tx.Hash())
	assertf(valueIn >= valueOut, "%v spends %v but creates %v", tx.Hash(),
		valueIn, valueOut)

	for _, txIn := range msgTx.TxIn {
		view.SpendOutput(txIn.PreviousOutPoint)
	}
	view.AddTxOuts(tx, checkSpendHeight)
}

// Check verifies the internal consistency of the pool against the passed
// coin view when the pool was configured with SanityCheck.  Every input of a
// pooled transaction must spend an available output of the view or of
// another pooled transaction, the transactions must apply in some order
// without double spending, the spend index must mirror the pooled inputs
// exactly, and the size total must match the entries.  A violation panics
// with an AssertError.
//
// This function is safe for concurrent access.
func (mp *TxPool) Check(view blockchain.CoinView) {
	if !mp.cfg.SanityCheck {
		return
	}

	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	log.Debugf("Checking pool with %d transactions and %d inputs",
		len(mp.pool), len(mp.outpoints))

	scratch := blockchain.NewCoinViewCache(view)
	var checkTotal int64
	var waiting []*TxDesc
	for hash, desc := range mp.pool {
		checkTotal += desc.txSize
		dependsWait := false
		for i, txIn := range desc.tx.MsgTx().TxIn {
			prevOut := &txIn.PreviousOutPoint
			if parent, exists := mp.pool[prevOut.Hash]; exists {
				parentOuts := parent.tx.MsgTx().TxOut
				assertf(uint64(prevOut.Index) < uint64(len(parentOuts)),
					"%v spends missing output %v of pooled "+
						"transaction", hash, prevOut)
				dependsWait = true
			} else {
				coins := view.AccessCoins(&prevOut.Hash)
				assertf(coins.IsAvailable(prevOut.Index),
					"%v spends unavailable output %v", hash,
					prevOut)
			}

			spender, ok := mp.outpoints[*prevOut]
			assertf(ok, "input %d of %v is not indexed", i, hash)
			assertf(spender.Hash == hash && spender.Index == uint32(i),
				"output %v is indexed to %v:%d instead of %v:%d",
				prevOut, spender.Hash, spender.Index, hash, i)
		}
		if dependsWait {
			waiting = append(waiting, desc)
		} else {
			checkSpend(scratch, desc.tx)
		}
	}

	// Dependent transactions apply once all of their parents have.  A
	// full pass over the queue without progress means an input is missing
	// or spent twice.
	stepsSinceLastRemove := 0
	for len(waiting) > 0 {
		desc := waiting[0]
		waiting = waiting[1:]
		if !scratch.HaveInputs(desc.tx.MsgTx()) {
			waiting = append(waiting, desc)
			stepsSinceLastRemove++
			assertf(stepsSinceLastRemove < len(waiting),
				"%d pooled transactions cannot be applied",
				len(waiting))
			continue
		}
		checkSpend(scratch, desc.tx)
		stepsSinceLastRemove = 0
	}

	for prevOut, spender := range mp.outpoints {
		desc, exists := mp.pool[spender.Hash]
		assertf(exists, "output %v is indexed to missing transaction %v",
			prevOut, spender.Hash)
		txIns := desc.tx.MsgTx().TxIn
		assertf(uint64(spender.Index) < uint64(len(txIns)),
			"output %v is indexed to missing input %d of %v", prevOut,
			spender.Index, spender.Hash)
		assertf(txIns[spender.Index].PreviousOutPoint == prevOut,
			"input %d of %v does not spend %v", spender.Index,
			spender.Hash, prevOut)
	}

	assertf(mp.totalTxSize == checkTotal, "total size %d does not match "+
		"entries %d", mp.totalTxSize, checkTotal)
}
