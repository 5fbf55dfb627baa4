// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the parameters of the dsd networks.
//
// Only the values consumed by the transaction pool and the operator tooling
// live here: coinbase maturity, the default relay fee and the data directory
// layout.  Consensus parameters are owned by the chain code.
package chaincfg
