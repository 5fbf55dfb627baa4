// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package mining houses the priority rules shared by the transaction pool and
block template generation.

Priority

A transaction's priority is the sum over its inputs of value times age in
blocks, divided by its serialized size less a per-input allowance:

	sum(inputValue * inputAge) / modifiedTxSize

Transactions whose priority exceeds MinHighPriority (one coin, one day old,
in a 250 byte transaction) are eligible to be relayed and mined for free.

Transaction selection

SelectTransactions orders the transactions of a TxSource the way a block
template would: a high-priority area filled by priority, then the remainder
by fee per kilobyte, always placing a transaction after the pool
transactions it spends.
*/
package mining
