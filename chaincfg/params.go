// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// ErrUnknownNet describes an error where the network parameters for a network
// cannot be looked up because the network is not registered.
var ErrUnknownNet = errors.New("unknown network")

// Network identifies one of the supported networks.
type Network int

// These constants define the supported networks.
const (
	Main Network = iota
	TestNet
)

// String returns the network name.
func (n Network) String() string {
	switch n {
	case Main:
		return "main"
	case TestNet:
		return "testnet"
	}
	return "unknown"
}

// Params defines the subset of network parameters the transaction staging
// store and its tooling depend on.
type Params struct {
	// Name is a human-readable identifier for the network.
	Name string

	// ID identifies the network.
	ID Network

	// Net defines the magic bytes used to identify the network.
	Net wire.BitcoinNet

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// RPCPort defines the default RPC port for the network.
	RPCPort string

	// DataDirName is the directory below the application data directory
	// that holds the network's data files.  Empty for the main network.
	DataDirName string

	// CoinbaseMaturity is the number of blocks required before newly mined
	// coins (coinbase transactions) can be spent.
	CoinbaseMaturity uint16

	// MinRelayTxFee is the default minimum fee rate, in atoms per 1000
	// bytes, for a transaction to be relayed.
	MinRelayTxFee btcutil.Amount
}

// MainNetParams defines the network parameters for the main network.
var MainNetParams = Params{
	Name:             "mainnet",
	ID:               Main,
	Net:              0xd9b4bef9,
	DefaultPort:      "31000",
	RPCPort:          "31500",
	DataDirName:      "",
	CoinbaseMaturity: 100,
	MinRelayTxFee:    1000,
}

// TestNetParams defines the network parameters for the test network.
var TestNetParams = Params{
	Name:             "testnet",
	ID:               TestNet,
	Net:              0x0709110b,
	DefaultPort:      "31750",
	RPCPort:          "31800",
	DataDirName:      "testnet",
	CoinbaseMaturity: 10,
	MinRelayTxFee:    1000,
}

var registeredNets = map[string]*Params{
	MainNetParams.Name: &MainNetParams,
	TestNetParams.Name: &TestNetParams,
}

// ParamsForName returns the parameters of the registered network with the
// given name.  The lookup is case insensitive.
func ParamsForName(name string) (*Params, error) {
	params, ok := registeredNets[strings.ToLower(name)]
	if !ok {
		return nil, ErrUnknownNet
	}
	return params, nil
}
