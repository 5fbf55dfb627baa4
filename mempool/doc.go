// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package mempool provides a policy-enforced pool of unmined transactions.

The pool keeps transactions that were validated elsewhere until they are
mined.  It indexes which pooled input spends each outpoint so that dependent
and conflicting transactions can be found without scanning the pool, and it
drives a fee estimator with the transactions every connected block confirms.

# Admission

AddUnchecked inserts a transaction without any checks.  AcceptTransaction
applies the relay policy first: the transaction must be standard, must not
double spend a pooled transaction, must spend known outputs without creating
value, and must pay the minimum relay fee unless it is small and has enough
priority to relay for free.  Script execution is left to the caller.

# Removal

  - Remove drops a transaction and, when requested, everything that spends
    its outputs, even if the transaction itself is no longer pooled
  - RemoveConflicts drops the pooled spenders of the same outpoints
  - RemoveForBlock reports the confirmed entries to the fee estimator and
    then removes them together with their conflicts
  - RemoveCoinbaseSpends drops spends of immature or vanished coins after a
    reorganization

# Standardness

IsStandard, IsStandardTx and AreInputsStandard are pure predicates that
report why a transaction is non-standard.  They are advisory: blocks may
contain non-standard transactions.

# Persistence

WriteFeeEstimates and ReadFeeEstimates frame the fee estimator state with the
client version required to read it.  SaveFeeEstimates and LoadFeeEstimates
use a fees.Store.

# Errors

Rejections are of type RuleError wrapping a TxRuleError with the reject code
to send to peers.  Check panics with an AssertError when the pool's internal
invariants do not hold.
*/
package mempool
