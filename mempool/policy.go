// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/blockchain"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/fees"
)

const (
	// MaxStandardTxSize is the size a transaction must stay below to be
	// considered standard.
	MaxStandardTxSize = 100000

	// MaxStandardTxSigOps is the maximum number of legacy signature
	// operations a standard transaction may contain.
	MaxStandardTxSigOps = 4000

	// maxStandardP2SHSigOps is the maximum number of signature operations
	// that are considered standard in a pay-to-script-hash script.
	maxStandardP2SHSigOps = 15

	// maxStandardSigScriptSize is the maximum size allowed for a
	// transaction input signature script to be considered standard.  This
	// value allows for a 15-of-15 CHECKMULTISIG pay-to-script-hash with
	// compressed keys.
	//
	// The form of the overall script is: OP_0 <15 signatures> OP_PUSHDATA2
	// <2 bytes len> [OP_15 <15 pubkeys> OP_15 OP_CHECKMULTISIG]
	//
	// (1 + 15*74 + 3) + (15*34 + 3) + 23 = 1650
	maxStandardSigScriptSize = 1650

	// maxStandardMultiSigKeys is the maximum number of public keys allowed
	// in a multi-signature transaction output script for it to be
	// considered standard.
	maxStandardMultiSigKeys = 3

	// DefaultMinRelayTxFee is the minimum fee in satoshi that is required
	// for a transaction to be treated as free for relay and mining
	// purposes.  It is also used to help determine if a transaction is
	// considered dust and as a base for calculating minimum required fees
	// for larger transactions.  This value is in Satoshi/1000 bytes.
	DefaultMinRelayTxFee = btcutil.Amount(1000)

	// MaxStandardTxVersion is the maximum transaction version that is
	// considered standard and will be relayed and considered for inclusion
	// in a block.
	MaxStandardTxVersion = 1
)

// Reasons reported by IsStandardTx.
const (
	reasonVersion       = "version"
	reasonTxSize        = "tx-size"
	reasonSigScriptSize = "scriptsig-size"
	reasonNotPushOnly   = "scriptsig-not-pushonly"
	reasonScriptPubKey  = "scriptpubkey"
	reasonMultiOpReturn = "multi-op-return"
	reasonDust          = "dust"
	reasonTooManySigOps = "too-many-sigops"
)

// calcMinRequiredTxRelayFee returns the minimum transaction fee required for a
// transaction with the passed serialized size to be accepted into the memory
// pool and relayed.
func calcMinRequiredTxRelayFee(serializedSize int64, minRelayTxFee btcutil.Amount) btcutil.Amount {
	minFee := fees.NewFeeRate(minRelayTxFee).GetFee(serializedSize)

	// Set the minimum fee to the maximum possible value if the calculated
	// fee is not in the valid range for monetary amounts.
	if !fees.MoneyRange(minFee) {
		minFee = fees.MaxMoney
	}

	return minFee
}

// IsStandard returns whether the passed public key script is of a standard
// form along with its class.  Standard forms are pay-to-pubkey-hash,
// pay-to-script-hash, pay-to-pubkey, null data carrying at most
// txscript.MaxDataCarrierSize bytes, and multi-signature scripts with from 1
// to maxStandardMultiSigKeys public keys and no more signatures than keys.
func IsStandard(pkScript []byte) (bool, txscript.ScriptClass) {
	class := txscript.GetScriptClass(pkScript)
	switch class {
	case txscript.PubKeyHashTy, txscript.ScriptHashTy, txscript.PubKeyTy,
		txscript.NullDataTy:

		return true, class

	case txscript.MultiSigTy:
		numPubKeys, numSigs, err := txscript.CalcMultiSigStats(pkScript)
		if err != nil {
			return false, class
		}
		if numPubKeys < 1 || numPubKeys > maxStandardMultiSigKeys {
			return false, class
		}
		if numSigs < 1 || numSigs > numPubKeys {
			return false, class
		}
		return true, class
	}

	return false, class
}

// IsStandardTx returns whether the passed transaction is standard, and when it
// is not, a short reason naming the first rule it breaks.
func IsStandardTx(tx *wire.MsgTx, minRelayTxFee btcutil.Amount, maxTxVersion int32) (bool, string) {
	// The transaction must be a currently supported version.
	if tx.Version > maxTxVersion || tx.Version < 1 {
		return false, reasonVersion
	}

	// Extremely large transactions with a lot of inputs can cost almost
	// as much to process as the sender fees, so limit the maximum size of
	// a transaction.
	if tx.SerializeSize() >= MaxStandardTxSize {
		return false, reasonTxSize
	}

	for _, txIn := range tx.TxIn {
		// See the comment on maxStandardSigScriptSize.
		if len(txIn.SignatureScript) > maxStandardSigScriptSize {
			return false, reasonSigScriptSize
		}
		if !txscript.IsPushOnlyScript(txIn.SignatureScript) {
			return false, reasonNotPushOnly
		}
	}

	// None of the output public key scripts can be a non-standard script or
	// be "dust" (except when the script is a null data script).
	numNullDataOutputs := 0
	for _, txOut := range tx.TxOut {
		standard, class := IsStandard(txOut.PkScript)
		if !standard {
			return false, reasonScriptPubKey
		}

		if class == txscript.NullDataTy {
			numNullDataOutputs++
		} else if IsDust(txOut, minRelayTxFee) {
			return false, reasonDust
		}
	}

	// A standard transaction must not have more than one output script that
	// only carries data.
	if numNullDataOutputs > 1 {
		return false, reasonMultiOpReturn
	}

	if countSigOps(tx) > MaxStandardTxSigOps {
		return false, reasonTooManySigOps
	}

	return true, ""
}

// countSigOps returns the number of legacy signature operations in all of the
// input and output scripts of the passed transaction.
func countSigOps(tx *wire.MsgTx) int {
	numSigOps := 0
	for _, txIn := range tx.TxIn {
		numSigOps += txscript.GetSigOpCount(txIn.SignatureScript)
	}
	for _, txOut := range tx.TxOut {
		numSigOps += txscript.GetSigOpCount(txOut.PkScript)
	}
	return numSigOps
}

// checkTransactionStandard wraps IsStandardTx for the admission path.  Dust
// outputs are rejected with wire.RejectDust, every other reason with
// wire.RejectNonstandard.
func checkTransactionStandard(tx *btcutil.Tx, minRelayTxFee btcutil.Amount, maxTxVersion int32) error {
	standard, reason := IsStandardTx(tx.MsgTx(), minRelayTxFee, maxTxVersion)
	if standard {
		return nil
	}

	code := wire.RejectNonstandard
	if reason == reasonDust {
		code = wire.RejectDust
	}
	return txRuleError(code, describeStandardFailure(tx.Hash(), reason))
}

// sigScriptArgsExpected returns the number of items a signature script must
// push to satisfy a public key script of the passed class, or -1 when the
// class cannot be spent by a standard signature script.
func sigScriptArgsExpected(class txscript.ScriptClass, pkScript []byte) int {
	switch class {
	case txscript.PubKeyTy:
		return 1

	case txscript.PubKeyHashTy:
		return 2

	case txscript.ScriptHashTy:
		return 1

	case txscript.MultiSigTy:
		_, numSigs, err := txscript.CalcMultiSigStats(pkScript)
		if err != nil {
			return -1
		}
		// One extra item for the value CHECKMULTISIG pops by mistake.
		return numSigs + 1
	}

	return -1
}

// parseSigScriptPushes returns the number of items the passed signature
// script pushes along with the data of the final push.  ok is false when the
// script is not push only or fails to parse.
func parseSigScriptPushes(sigScript []byte) (numPushes int, last []byte, ok bool) {
	if !txscript.IsPushOnlyScript(sigScript) {
		return 0, nil, false
	}

	tokenizer := txscript.MakeScriptTokenizer(0, sigScript)
	for tokenizer.Next() {
		numPushes++
		last = tokenizer.Data()
	}
	if tokenizer.Err() != nil {
		return 0, nil, false
	}
	return numPushes, last, true
}

// AreInputsStandard returns whether every input of the passed transaction
// spends a standard public key script with a signature script pushing
// exactly the items that script expects.  Inputs spending
// pay-to-script-hash outputs must additionally carry a standard redeem
// script, itself not pay-to-script-hash, or a non-standard one with few
// enough signature operations.  Inputs whose coins are missing from the view
// make the transaction non-standard.
func AreInputsStandard(tx *wire.MsgTx, view blockchain.CoinView) bool {
	if blockchain.IsCoinBaseTx(tx) {
		return true
	}

	for _, txIn := range tx.TxIn {
		prevOut := &txIn.PreviousOutPoint
		entry := view.AccessCoins(&prevOut.Hash).Output(prevOut.Index)
		if entry == nil {
			return false
		}

		pkScript := entry.PkScript
		class := txscript.GetScriptClass(pkScript)
		argsExpected := sigScriptArgsExpected(class, pkScript)
		if argsExpected < 0 {
			return false
		}

		numPushes, redeemScript, ok := parseSigScriptPushes(
			txIn.SignatureScript)
		if !ok {
			return false
		}

		if class == txscript.ScriptHashTy {
			if numPushes == 0 {
				return false
			}

			numSigOps := txscript.GetPreciseSigOpCount(
				txIn.SignatureScript, pkScript, true)
			if numSigOps > maxStandardP2SHSigOps {
				return false
			}

			redeemClass := txscript.GetScriptClass(redeemScript)
			if redeemClass == txscript.NonStandardTy {
				// Arbitrary redeem scripts are fine as long as
				// their signature operations are bounded.
				continue
			}
			redeemArgs := sigScriptArgsExpected(redeemClass,
				redeemScript)
			if redeemArgs < 0 {
				return false
			}
			argsExpected += redeemArgs
		}

		if numPushes != argsExpected {
			return false
		}
	}

	return true
}

// GetDustThreshold calculates the dust limit for a *wire.TxOut by taking the
// size of a typical spending transaction and multiplying it by 3 to account
// for the minimum dust relay fee.
func GetDustThreshold(txOut *wire.TxOut) int64 {
	// The total serialized size consists of the output and the associated
	// input script to redeem it.  Since there is no input script to redeem
	// it yet, use the minimum size of a typical pay-to-pubkey-hash input
	// script:
	//
	//  Input with compressed pubkey (148 bytes):
	//   36 prev outpoint, 1 script len, 107 script [1 OP_DATA_72, 72 sig,
	//   1 OP_DATA_33, 33 compressed pubkey], 4 sequence
	totalSize := txOut.SerializeSize() + 41 + 107
	return 3 * int64(totalSize)
}

// IsDust returns whether or not the passed transaction output amount is
// considered dust or not based on the passed minimum transaction relay fee.
// Dust is defined in terms of the minimum transaction relay fee.  In
// particular, if the cost to the network to spend coins is more than 1/3 of the
// minimum transaction relay fee, it is considered dust.
func IsDust(txOut *wire.TxOut, minRelayTxFee btcutil.Amount) bool {
	// Unspendable outputs are considered dust.
	if txscript.IsUnspendable(txOut.PkScript) {
		return true
	}

	// The following is equivalent to (value/totalSize) * (1/3) * 1000
	// without needing to do floating point math.  With the default relay
	// fee a pay-to-pubkey-hash output below 546 satoshi is dust.
	return txOut.Value*1000/GetDustThreshold(txOut) < int64(minRelayTxFee)
}

// describeStandardFailure renders a reason from IsStandardTx for a reject
// message.
func describeStandardFailure(hash fmt.Stringer, reason string) string {
	return fmt.Sprintf("transaction %v is not standard: %s", hash, reason)
}
