// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/chaincfg"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/fees"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/internal/log"
)

const (
	storeFile    = "file"
	storeLevelDB = "leveldb"

	defaultLogFilename = "feeestimates.log"
)

var (
	defaultHomeDir = btcutil.AppDataDir("darksilk", false)
	knownStores    = []string{storeFile, storeLevelDB}
)

// config defines the configuration options for feeestimates.
//
// See loadConfig for details on the configuration load process.
type config struct {
	DataDir    string `short:"b" long:"datadir" description:"Location of the dsd data directory"`
	LogDir     string `long:"logdir" description:"Also write log output to a rotated file in this directory"`
	TestNet    bool   `long:"testnet" description:"Use the test network"`
	Store      string `short:"s" long:"store" description:"Store to read the fee estimates from {file, leveldb}"`
	ConvertTo  string `short:"c" long:"convert" description:"Copy the fee estimates into another store {file, leveldb}"`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`

	params *chaincfg.Params
}

// validStore returns whether or not store names a supported store.
func validStore(store string) bool {
	for _, known := range knownStores {
		if store == known {
			return true
		}
	}
	return false
}

// netDataDir returns the data directory of the configured network.
func (cfg *config) netDataDir() string {
	return filepath.Join(cfg.DataDir, cfg.params.DataDirName)
}

// openStore opens the named fee estimate store of the configured network.
func (cfg *config) openStore(store string) (fees.Store, error) {
	switch store {
	case storeFile:
		return fees.NewFileStore(cfg.netDataDir())
	case storeLevelDB:
		return fees.OpenLevelDBStore(filepath.Join(cfg.netDataDir(),
			fees.EstimatesDBName))
	}
	return nil, fmt.Errorf("unknown store %q", store)
}

// loadConfig initializes and parses the config using the passed command line
// arguments.
func loadConfig(args []string) (*config, []string, error) {
	// Default config.
	cfg := config{
		DataDir:    defaultHomeDir,
		Store:      storeFile,
		DebugLevel: "info",
	}

	// Parse command line options.
	parser := flags.NewParser(&cfg, flags.Default)
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		var e *flags.Error
		if !errors.As(err, &e) || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	funcName := "loadConfig"
	netName := chaincfg.MainNetParams.Name
	if cfg.TestNet {
		netName = chaincfg.TestNetParams.Name
	}
	cfg.params, err = chaincfg.ParamsForName(netName)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", funcName, err)
	}

	cfg.Store = strings.ToLower(cfg.Store)
	cfg.ConvertTo = strings.ToLower(cfg.ConvertTo)
	if !validStore(cfg.Store) {
		str := "%s: the specified store [%v] is invalid -- supported " +
			"stores %v"
		err := fmt.Errorf(str, funcName, cfg.Store, knownStores)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}
	if cfg.ConvertTo != "" {
		if !validStore(cfg.ConvertTo) {
			str := "%s: the conversion store [%v] is invalid -- " +
				"supported stores %v"
			err := fmt.Errorf(str, funcName, cfg.ConvertTo,
				knownStores)
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
			return nil, nil, err
		}
		if cfg.ConvertTo == cfg.Store {
			err := fmt.Errorf("%s: cannot convert the %s store into "+
				"itself", funcName, cfg.Store)
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	}

	if !log.ValidLogLevel(cfg.DebugLevel) {
		err := fmt.Errorf("%s: the specified debug level [%v] is "+
			"invalid", funcName, cfg.DebugLevel)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	return &cfg, remainingArgs, nil
}
