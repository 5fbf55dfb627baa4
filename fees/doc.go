// Copyright (c) 2018-2020 The Decred developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package fees provides fee rates and the estimator that learns, from confirmed
pool transactions, the fee rate or priority needed to be mined within a target
number of blocks.

Fee rates

A FeeRate is an amount per 1000 bytes of serialized size.  GetFee truncates
toward zero, but a positive rate always charges at least one satoshi.

Outline of the algorithm

Statistics are kept separately for fee-driven and for priority-driven
transactions.  Each set groups transactions into exponentially spaced value
buckets and, for every confirmation delay from 1 to MaxConfirms blocks,
tracks a moving average of how many transactions in the bucket confirmed
within that delay.  Every block the averages decay by a constant factor before
the block's transactions are added, so recent blocks weigh more.

For each block the pool reports the entries it confirmed:

- the delay is the block height less the height the entry entered the pool
- at most MaxSamplesPerDelay random entries per delay are used
- an entry paying more than the relay fee that could not relay for free is a
  fee sample, a free-eligible entry not paying more than the relay fee is a
  priority sample, and anything else is skipped

An estimate for a target walks the buckets from the highest value down,
combining buckets until a range holds enough transactions, and keeps going
while each range confirmed at least MinSuccessPct of its transactions within
the target.  The reported value is the average of the bucket holding the
median transaction of the last qualifying range.

Persistence

Write and Read use a versioned little-endian payload.  The Store
implementations keep one such stream in a file (FileStore) or in a leveldb
database (LevelDBStore).
*/
package fees
