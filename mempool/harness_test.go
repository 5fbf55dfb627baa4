// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/blockchain"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/chaincfg"
)

// coinbaseOutputValue is the value of every output of the harness coinbase.
const coinbaseOutputValue = 5000000000

// spendableOutput is a convenience type that houses a particular utxo and the
// amount associated with it.
type spendableOutput struct {
	outPoint wire.OutPoint
	amount   btcutil.Amount
}

// txOutToSpendableOut returns a spendable output given a transaction and index
// of the output to use.  This is useful as a convenience when creating test
// transactions.
func txOutToSpendableOut(tx *btcutil.Tx, outputNum uint32) spendableOutput {
	return spendableOutput{
		outPoint: wire.OutPoint{Hash: *tx.Hash(), Index: outputNum},
		amount:   btcutil.Amount(tx.MsgTx().TxOut[outputNum].Value),
	}
}

// payToPubKeyHashScript returns a pay-to-pubkey-hash script for the passed
// serialized public key.
func payToPubKeyHashScript(pubKey []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).AddData(btcutil.Hash160(pubKey)).
		AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG).
		Script()
}

// poolHarness provides a harness that includes functionality for creating and
// signing transactions as well as a coin view that provides the outputs they
// spend.
type poolHarness struct {
	// signKey is the signing key used for creating transactions throughout
	// the tests.
	//
	// payScript is the pay-to-pubkey-hash script for the signing key and
	// is used for the payments throughout the tests.
	signKey     *btcec.PrivateKey
	payScript   []byte
	chainParams *chaincfg.Params

	view      *blockchain.CoinViewCache
	height    int32
	numFunded uint32
	txPool    *TxPool
}

// bestHeight returns the current height of the harness chain.
func (p *poolHarness) bestHeight() int32 {
	return p.height
}

// CreateCoinbaseTx returns a coinbase transaction with the requested number of
// outputs paying coinbaseOutputValue each to the harness payment script.
func (p *poolHarness) CreateCoinbaseTx(blockHeight int32, numOutputs uint32) (*btcutil.Tx, error) {
	// Create standard coinbase script.
	extraNonce := int64(0)
	coinbaseScript, err := txscript.NewScriptBuilder().
		AddInt64(int64(blockHeight)).AddInt64(extraNonce).Script()
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(&wire.TxIn{
		// Coinbase transactions have no inputs, so previous outpoint is
		// zero hash and max index.
		PreviousOutPoint: *wire.NewOutPoint(&chainhash.Hash{},
			wire.MaxPrevOutIndex),
		SignatureScript: coinbaseScript,
		Sequence:        wire.MaxTxInSequenceNum,
	})
	for i := uint32(0); i < numOutputs; i++ {
		tx.AddTxOut(&wire.TxOut{
			PkScript: p.payScript,
			Value:    coinbaseOutputValue,
		})
	}

	return btcutil.NewTx(tx), nil
}

// fundOutput adds a single output with the passed value and script, created
// at the passed height, to the harness view.
func (p *poolHarness) fundOutput(value int64, pkScript []byte, height int32) spendableOutput {
	p.numFunded++
	fund := wire.NewMsgTx(wire.TxVersion)
	fund.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Index: p.numFunded},
		Sequence:         wire.MaxTxInSequenceNum,
	})
	fund.AddTxOut(&wire.TxOut{Value: value, PkScript: pkScript})

	tx := btcutil.NewTx(fund)
	p.view.AddTxOuts(tx, height)
	return txOutToSpendableOut(tx, 0)
}

// createTx creates a new signed transaction that consumes the provided inputs
// and generates the provided number of outputs by evenly splitting the total
// input amount less the fee.  The mutate function, when not nil, is applied
// before signing.
func (p *poolHarness) createTx(inputs []spendableOutput, numOutputs uint32,
	fee btcutil.Amount, mutate func(*wire.MsgTx)) (*btcutil.Tx, error) {

	// Calculate the total input amount and split it amongst the requested
	// number of outputs.
	var totalInput btcutil.Amount
	for _, input := range inputs {
		totalInput += input.amount
	}
	totalOutput := int64(totalInput - fee)
	amountPerOutput := totalOutput / int64(numOutputs)
	remainder := totalOutput - amountPerOutput*int64(numOutputs)

	tx := wire.NewMsgTx(wire.TxVersion)
	for _, input := range inputs {
		tx.AddTxIn(&wire.TxIn{
			PreviousOutPoint: input.outPoint,
			SignatureScript:  nil,
			Sequence:         wire.MaxTxInSequenceNum,
		})
	}
	for i := uint32(0); i < numOutputs; i++ {
		// Ensure the final output accounts for any remainder that might
		// be left from splitting the input amount.
		amount := amountPerOutput
		if i == numOutputs-1 {
			amount = amountPerOutput + remainder
		}
		tx.AddTxOut(&wire.TxOut{
			PkScript: p.payScript,
			Value:    amount,
		})
	}
	if mutate != nil {
		mutate(tx)
	}

	// Sign the new transaction.
	for i := range tx.TxIn {
		sigScript, err := txscript.SignatureScript(tx, i, p.payScript,
			txscript.SigHashAll, p.signKey, true)
		if err != nil {
			return nil, err
		}
		tx.TxIn[i].SignatureScript = sigScript
	}

	return btcutil.NewTx(tx), nil
}

// CreateSignedTx creates a new signed transaction that consumes the provided
// inputs and pays the passed fee.  All outputs will be to the payment script
// associated with the harness and all inputs are assumed to do the same.
func (p *poolHarness) CreateSignedTx(t *testing.T, inputs []spendableOutput,
	numOutputs uint32, fee btcutil.Amount) *btcutil.Tx {

	t.Helper()
	tx, err := p.createTx(inputs, numOutputs, fee, nil)
	require.NoError(t, err)
	return tx
}

// CreateTxChain creates a chain of zero-fee transactions (each subsequent
// transaction spends the entire amount from the previous one) with the first
// one spending the provided outpoint.
func (p *poolHarness) CreateTxChain(t *testing.T, firstOutput spendableOutput,
	numTxns uint32) []*btcutil.Tx {

	t.Helper()
	txChain := make([]*btcutil.Tx, 0, numTxns)
	spend := firstOutput
	for i := uint32(0); i < numTxns; i++ {
		tx := p.CreateSignedTx(t, []spendableOutput{spend}, 1, 0)
		txChain = append(txChain, tx)

		// Next transaction uses outputs from this one.
		spend = txOutToSpendableOut(tx, 0)
	}

	return txChain
}

// addUnchecked adds tx paying the passed fee to the pool at the harness
// height.
func (p *poolHarness) addUnchecked(tx *btcutil.Tx, fee btcutil.Amount) *TxDesc {
	desc := NewTxDesc(tx, fee, time.Now(), 0, p.height)
	p.txPool.AddUnchecked(tx.Hash(), desc)
	return desc
}

// connectBlock applies the passed transactions to the harness view as a new
// block and hands them to the pool.  It returns the evicted conflicts.
func (p *poolHarness) connectBlock(txns ...*btcutil.Tx) []*btcutil.Tx {
	p.height++
	msgTxns := make([]*wire.MsgTx, 0, len(txns))
	for _, tx := range txns {
		for _, txIn := range tx.MsgTx().TxIn {
			p.view.SpendOutput(txIn.PreviousOutPoint)
		}
		p.view.AddTxOuts(tx, p.height)
		msgTxns = append(msgTxns, tx.MsgTx())
	}
	return p.txPool.RemoveForBlock(msgTxns, p.height)
}

// newPoolHarness returns a new instance of a pool harness initialized with a
// coin view and a TxPool bound to it that is configured with a policy
// suitable for testing.  The view holds a coinbase with the requested number
// of outputs, returned as spendable outputs, that matures at the harness
// height.
func newPoolHarness(t *testing.T, numOutputs uint32) (*poolHarness, []spendableOutput) {
	t.Helper()

	// Use a hard coded key pair for deterministic results.
	keyBytes, err := hex.DecodeString("700868df1838811ffbdf918fb482c1f7e" +
		"ad62db4b97bd7012c23e726485e577d")
	require.NoError(t, err)
	signKey, signPub := btcec.PrivKeyFromBytes(keyBytes)

	payScript, err := payToPubKeyHashScript(signPub.SerializeCompressed())
	require.NoError(t, err)

	chainParams := &chaincfg.TestNetParams
	harness := &poolHarness{
		signKey:     signKey,
		payScript:   payScript,
		chainParams: chainParams,
		view:        blockchain.NewCoinViewCache(nil),
	}
	harness.txPool = New(&Config{
		Policy: Policy{
			MaxTxVersion:  1,
			MinRelayTxFee: 1000, // 1 Satoshi per byte
		},
		ChainParams: chainParams,
		SanityCheck: true,
		BestHeight:  harness.bestHeight,
	})

	// Create a single coinbase transaction at height one and set the
	// harness height such that it is mature.
	coinbase, err := harness.CreateCoinbaseTx(1, numOutputs)
	require.NoError(t, err)
	harness.view.AddTxOuts(coinbase, 1)
	outputs := make([]spendableOutput, 0, numOutputs)
	for i := uint32(0); i < numOutputs; i++ {
		outputs = append(outputs, txOutToSpendableOut(coinbase, i))
	}
	harness.height = 1 + int32(chainParams.CoinbaseMaturity)

	return harness, outputs
}

// requireAssertPanic ensures f panics with an AssertError.
func requireAssertPanic(t *testing.T, f func()) {
	t.Helper()

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected an assertion failure")
		_, ok := r.(AssertError)
		require.True(t, ok, "panic value is not an AssertError: %v",
			spew.Sdump(r))
	}()
	f()
}
