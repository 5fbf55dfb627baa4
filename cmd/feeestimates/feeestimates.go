// Copyright (c) 2018-2020 The Decred developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Tool feeestimates prints the fee estimates persisted by dsd and can copy
// them between the flat file and leveldb stores.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/fees"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/internal/log"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/mempool"
)

var errNoEstimates = errors.New("no fee estimates could be loaded")

// loadPool returns a pool whose estimator holds the estimates in store.
func loadPool(cfg *config, store fees.Store) (*mempool.TxPool, error) {
	pool := mempool.New(&mempool.Config{ChainParams: cfg.params})
	if !pool.LoadFeeEstimates(store) {
		return nil, errNoEstimates
	}
	return pool, nil
}

// printEstimates writes the per-target estimates and the bucket table of the
// pool's estimator to w.
func printEstimates(w io.Writer, pool *mempool.TxPool) {
	est := pool.FeeEstimator()
	height := est.BestSeenHeight()
	fmt.Fprintf(w, "Estimates as of height %d\n", height)
	for target := 1; target <= est.MaxConfirms(); target++ {
		blocks := log.PickNoun(uint64(target), "block", "blocks")
		feeRate, err := pool.EstimateFee(target)
		if err != nil {
			fmt.Fprintf(w, "%3d %-6s fee: %v\n", target, blocks, err)
			continue
		}
		priority, err := pool.EstimatePriority(target)
		if err != nil {
			fmt.Fprintf(w, "%3d %-6s fee: %v priority: %v\n", target,
				blocks, feeRate, err)
			continue
		}
		fmt.Fprintf(w, "%3d %-6s fee: %v priority: %.2f\n", target,
			blocks, feeRate, priority)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, est.DumpBuckets())
}

// run loads the configured store, prints its estimates and optionally
// converts them into the other store.
func run(cfg *config, w io.Writer) error {
	src, err := cfg.openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer src.Close()

	pool, err := loadPool(cfg, src)
	if err != nil {
		return fmt.Errorf("%s store: %w", cfg.Store, err)
	}
	printEstimates(w, pool)

	if cfg.ConvertTo == "" {
		return nil
	}
	dst, err := cfg.openStore(cfg.ConvertTo)
	if err != nil {
		return err
	}
	defer dst.Close()
	if !pool.SaveFeeEstimates(dst) {
		return fmt.Errorf("unable to save fee estimates to the %s store",
			cfg.ConvertTo)
	}
	log.DsdtLog.Infof("Copied fee estimates from the %s store to the %s "+
		"store", cfg.Store, cfg.ConvertTo)
	return nil
}

func main() {
	cfg, _, err := loadConfig(os.Args[1:])
	if err != nil {
		os.Exit(1)
	}
	if cfg.LogDir != "" {
		logFile := filepath.Join(cfg.LogDir, defaultLogFilename)
		if err := log.InitLogRotator(logFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer log.LogRotator.Close()
	}
	log.SetLogLevels(cfg.DebugLevel)

	if err := run(cfg, os.Stdout); err != nil {
		log.DsdtLog.Errorf("%v", err)
		if log.LogRotator != nil {
			log.LogRotator.Close()
		}
		os.Exit(1)
	}
}
