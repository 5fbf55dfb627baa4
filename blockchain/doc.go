// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package blockchain provides the view of unspent coins the transaction pool
consults when it checks inputs.

The full chain (block storage, validation and reorganization) is owned by the
node.  This package only defines the narrow capability the pool needs:

  - CoinView resolves a transaction id to the unspent outputs it created
  - Coins reports output availability, coinbase origin and origin height
  - CoinViewCache layers in-memory changes over any other CoinView

A nil *Coins from AccessCoins means the transaction is unknown or fully spent.
*/
package blockchain
