// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/blockchain"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/fees"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/mining"
)

// checkPoolDoubleSpend checks whether or not the passed transaction is
// attempting to spend coins already spent by other transactions in the pool.
// Note it does not check for double spends against transactions already in the
// main chain.
//
// This function MUST be called with the mempool lock held.
func (mp *TxPool) checkPoolDoubleSpend(tx *btcutil.Tx) error {
	for _, txIn := range tx.MsgTx().TxIn {
		if spender, exists := mp.outpoints[txIn.PreviousOutPoint]; exists {
			str := fmt.Sprintf("output %v already spent by "+
				"transaction %v in the memory pool",
				txIn.PreviousOutPoint, spender.Hash)
			return txRuleError(wire.RejectDuplicate, str)
		}
	}

	return nil
}

// chainState is what admission needs from the coin view of the chain tip.
// It is gathered before the pool lock is taken.
type chainState struct {
	// inChain is set when the transaction itself has unspent outputs in
	// the chain.
	inChain bool

	// coins holds copies of the chain coins spent by the transaction.  It
	// has no backing view.
	coins *blockchain.CoinViewCache

	bestHeight int32
}

// fetchChainState looks up the chain coins spent by tx along with tx itself.
//
// This function MUST NOT be called with the mempool lock held.
func (mp *TxPool) fetchChainState(tx *btcutil.Tx, view blockchain.CoinView) *chainState {
	state := &chainState{
		inChain:    view.AccessCoins(tx.Hash()) != nil,
		coins:      blockchain.NewCoinViewCache(nil),
		bestHeight: mp.cfg.BestHeight(),
	}
	for _, txIn := range tx.MsgTx().TxIn {
		hash := &txIn.PreviousOutPoint.Hash
		if state.coins.HaveCoins(hash) {
			continue
		}
		if coins := view.AccessCoins(hash); coins != nil {
			state.coins.SetCoins(hash, coins.Clone())
		}
	}
	return state
}

// fetchInputCoins returns a view of the coins spent by tx.  Outputs of pooled
// transactions are added at mining.UnminedHeight on top of the chain coins.
//
// This function MUST be called with the mempool lock held.
func (mp *TxPool) fetchInputCoins(tx *btcutil.Tx, chainCoins *blockchain.CoinViewCache) *blockchain.CoinViewCache {
	inputs := blockchain.NewCoinViewCache(chainCoins)
	for _, txIn := range tx.MsgTx().TxIn {
		if parent, exists := mp.pool[txIn.PreviousOutPoint.Hash]; exists {
			inputs.AddTxOuts(parent.tx, mining.UnminedHeight)
		}
	}
	return inputs
}

// p2shSigOps returns the number of signature operations in the redeem
// scripts of the pay-to-script-hash inputs of tx.
func p2shSigOps(tx *wire.MsgTx, view blockchain.CoinView) int {
	numSigOps := 0
	for _, txIn := range tx.TxIn {
		prevOut := &txIn.PreviousOutPoint
		txOut := view.AccessCoins(&prevOut.Hash).Output(prevOut.Index)
		if txOut == nil || !txscript.IsPayToScriptHash(txOut.PkScript) {
			continue
		}
		numSigOps += txscript.GetPreciseSigOpCount(txIn.SignatureScript,
			txOut.PkScript, true)
	}
	return numSigOps
}

// acceptTransaction is the internal function which implements the public
// AcceptTransaction.  See the comment for AcceptTransaction for more details.
//
// This function MUST be called with the mempool lock held.
func (mp *TxPool) acceptTransaction(tx *btcutil.Tx, chain *chainState, isNew bool) (*TxDesc, error) {
	txHash := tx.Hash()
	msgTx := tx.MsgTx()

	// A standalone transaction must not be a coinbase transaction.
	if blockchain.IsCoinBaseTx(msgTx) {
		str := fmt.Sprintf("transaction %v is an individual coinbase",
			txHash)
		return nil, txRuleError(wire.RejectInvalid, str)
	}

	// Don't accept the transaction if it already exists in the pool.
	if _, exists := mp.pool[*txHash]; exists {
		str := fmt.Sprintf("already have transaction %v", txHash)
		return nil, txRuleError(wire.RejectDuplicate, str)
	}

	// Don't allow non-standard transactions if the policy forbids their
	// acceptance.
	policy := &mp.cfg.Policy
	if !policy.AcceptNonStd {
		err := checkTransactionStandard(tx, policy.MinRelayTxFee,
			policy.MaxTxVersion)
		if err != nil {
			return nil, err
		}
	}

	// The transaction may not use any of the same outputs as other
	// transactions already in the pool as that would ultimately result in a
	// double spend.
	if err := mp.checkPoolDoubleSpend(tx); err != nil {
		return nil, err
	}

	// Don't allow the transaction if it exists in the main chain and is not
	// already fully spent.
	if chain.inChain {
		return nil, txRuleError(wire.RejectDuplicate,
			"transaction already exists")
	}

	inputs := mp.fetchInputCoins(tx, chain.coins)
	if !inputs.HaveInputs(msgTx) {
		str := fmt.Sprintf("transaction %v spends missing or spent "+
			"outputs", txHash)
		return nil, txRuleError(wire.RejectInvalid, str)
	}

	// Don't allow transactions with non-standard inputs if the policy
	// forbids their acceptance.
	if !policy.AcceptNonStd && !AreInputsStandard(msgTx, inputs) {
		str := fmt.Sprintf("transaction %v has a non-standard input",
			txHash)
		return nil, txRuleError(wire.RejectNonstandard, str)
	}

	var valueOut btcutil.Amount
	for i, txOut := range msgTx.TxOut {
		value := btcutil.Amount(txOut.Value)
		if !fees.MoneyRange(value) {
			str := fmt.Sprintf("transaction %v output %d value %v "+
				"is out of range", txHash, i, value)
			return nil, txRuleError(wire.RejectInvalid, str)
		}
		valueOut += value
		if !fees.MoneyRange(valueOut) {
			str := fmt.Sprintf("total value of transaction %v "+
				"outputs is out of range", txHash)
			return nil, txRuleError(wire.RejectInvalid, str)
		}
	}
	valueIn := blockchain.ValueIn(inputs, msgTx)
	if !fees.MoneyRange(valueIn) {
		str := fmt.Sprintf("total value of transaction %v inputs is "+
			"out of range", txHash)
		return nil, txRuleError(wire.RejectInvalid, str)
	}
	txFee := valueIn - valueOut
	if txFee < 0 {
		str := fmt.Sprintf("transaction %v spends %v but creates %v",
			txHash, valueIn, valueOut)
		return nil, txRuleError(wire.RejectInvalid, str)
	}

	// Don't allow transactions with an excessive number of signature
	// operations which would result in making it impossible to mine.
	numSigOps := countSigOps(msgTx) + p2shSigOps(msgTx, inputs)
	if numSigOps > MaxStandardTxSigOps {
		str := fmt.Sprintf("transaction %v has too many sigops: %d > %d",
			txHash, numSigOps, MaxStandardTxSigOps)
		return nil, txRuleError(wire.RejectNonstandard, str)
	}

	bestHeight := chain.bestHeight
	nextBlockHeight := bestHeight + 1
	txSize := int64(msgTx.SerializeSize())

	// Prioritised transactions are exempt from the fee requirements.
	var priorityDelta float64
	var feeDelta btcutil.Amount
	mp.applyDeltas(txHash, &priorityDelta, &feeDelta)
	if priorityDelta <= 0 && feeDelta <= 0 {
		// A transaction size of up to 1000 bytes less than the space
		// reserved for high-priority transactions does not need a fee.
		minFee := calcMinRequiredTxRelayFee(txSize, policy.MinRelayTxFee)
		if txSize >= (DefaultBlockPrioritySize-1000) && txFee < minFee {
			str := fmt.Sprintf("transaction %v has %v fees which "+
				"is under the required amount of %v", txHash,
				txFee, minFee)
			return nil, txRuleError(wire.RejectInsufficientFee, str)
		}

		// Require that free transactions have sufficient priority to
		// be mined in the next block.  Transactions which are being
		// added back to the pool from blocks that have been
		// disconnected during a reorg are exempted.
		if isNew && !policy.DisableRelayPriority && txFee < minFee {
			currentPriority := mining.CalcPriority(msgTx, inputs,
				nextBlockHeight)
			if !mining.AllowFree(currentPriority) {
				str := fmt.Sprintf("transaction %v has "+
					"insufficient priority (%g <= %g)",
					txHash, currentPriority,
					mining.MinHighPriority)
				return nil, txRuleError(
					wire.RejectInsufficientFee, str)
			}
		}
	}

	startingPriority := mining.CalcPriority(msgTx, inputs, bestHeight)
	desc := NewTxDesc(tx, txFee, time.Now(), startingPriority, bestHeight)
	mp.addUnchecked(txHash, desc)

	log.Debugf("Accepted transaction %v (pool size: %v)", txHash,
		len(mp.pool))

	return desc, nil
}

// AcceptTransaction applies the relay policy to a transaction the caller
// has already validated against consensus rules, including its scripts, and
// adds it to the pool.  The passed view must provide the coins of the chain
// tip; outputs of pooled transactions are resolved from the pool.  isNew is
// false for transactions returned to the pool from disconnected blocks,
// which exempts them from the priority requirement for free transactions.
//
// The view is only queried before the pool lock is taken.  Rejections are
// returned as a RuleError wrapping a TxRuleError.
//
// This function is safe for concurrent access.
func (mp *TxPool) AcceptTransaction(tx *btcutil.Tx, view blockchain.CoinView, isNew bool) (*TxDesc, error) {
	chain := mp.fetchChainState(tx, view)

	mp.mtx.Lock()
	desc, err := mp.acceptTransaction(tx, chain, isNew)
	mp.mtx.Unlock()

	return desc, err
}
