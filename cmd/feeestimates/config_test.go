// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/chaincfg"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/fees"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/mempool"
)

// TestLoadConfig ensures flags select the network and stores and invalid
// combinations are refused.
func TestLoadConfig(t *testing.T) {
	cfg, _, err := loadConfig(nil)
	require.NoError(t, err)
	require.Equal(t, defaultHomeDir, cfg.DataDir)
	require.Equal(t, storeFile, cfg.Store)
	require.Empty(t, cfg.ConvertTo)
	require.Equal(t, &chaincfg.MainNetParams, cfg.params)
	require.Equal(t, defaultHomeDir, cfg.netDataDir())

	cfg, _, err = loadConfig([]string{"--testnet", "-b", "/tmp/dsd",
		"--store=LevelDB", "--convert", "file"})
	require.NoError(t, err)
	require.Equal(t, &chaincfg.TestNetParams, cfg.params)
	require.Equal(t, storeLevelDB, cfg.Store)
	require.Equal(t, storeFile, cfg.ConvertTo)
	require.Equal(t, filepath.Join("/tmp/dsd", "testnet"), cfg.netDataDir())

	invalid := [][]string{
		{"--store", "sqlite"},
		{"--convert", "sqlite"},
		{"--store", "file", "--convert", "file"},
		{"--debuglevel", "loud"},
		{"--unknown"},
	}
	for _, args := range invalid {
		_, _, err := loadConfig(args)
		require.Error(t, err, "%v", args)
	}
}

// TestRun ensures estimates saved in one store are printed and converted
// into the other.
func TestRun(t *testing.T) {
	cfg, _, err := loadConfig([]string{"-b", t.TempDir(), "--convert",
		"leveldb"})
	require.NoError(t, err)

	var out bytes.Buffer
	err = run(cfg, &out)
	require.True(t, errors.Is(err, errNoEstimates), "%v", err)

	// Seed the file store from a fresh pool.
	src, err := cfg.openStore(storeFile)
	require.NoError(t, err)
	pool := mempool.New(&mempool.Config{ChainParams: cfg.params})
	require.True(t, pool.SaveFeeEstimates(src))
	require.NoError(t, src.Close())

	out.Reset()
	require.NoError(t, run(cfg, &out))
	require.Contains(t, out.String(), "Estimates as of height 0")
	require.Contains(t, out.String(), "  1 block ")

	dst, err := fees.OpenLevelDBStore(filepath.Join(cfg.netDataDir(),
		fees.EstimatesDBName))
	require.NoError(t, err)
	defer dst.Close()
	converted := mempool.New(&mempool.Config{ChainParams: cfg.params})
	require.True(t, converted.LoadFeeEstimates(dst))
	require.Equal(t, pool.FeeEstimator().DumpBuckets(),
		converted.FeeEstimator().DumpBuckets())
}
