// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fees

import (
	"bytes"
	"math"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

// testEntry is a ConfirmedEntry with a fixed priority.
type testEntry struct {
	fee      btcutil.Amount
	size     int64
	height   int32
	priority float64
}

func (e *testEntry) Fee() btcutil.Amount { return e.fee }

func (e *testEntry) TxSize() int64 { return e.size }

func (e *testEntry) Height() int32 { return e.height }

func (e *testEntry) GetPriority(int32) float64 { return e.priority }

// feeEntries returns n entries paying rate that entered the pool at height.
func feeEntries(n int, rate FeeRate, height int32) []ConfirmedEntry {
	entries := make([]ConfirmedEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, &testEntry{
			fee:    rate.GetFee(250),
			size:   250,
			height: height,
		})
	}
	return entries
}

// priorityEntries returns n free entries with the passed priority that
// entered the pool at height.
func priorityEntries(n int, priority float64, height int32) []ConfirmedEntry {
	entries := make([]ConfirmedEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, &testEntry{
			size:     250,
			height:   height,
			priority: priority,
		})
	}
	return entries
}

// newTestEstimator returns an estimator with a fast decay so few blocks are
// needed to reach sufficient data.
func newTestEstimator(t *testing.T) *Estimator {
	t.Helper()

	cfg := DefaultEstimatorConfig()
	cfg.Decay = 0.5
	est, err := NewEstimator(cfg)
	require.NoError(t, err)
	return est
}

// TestNewEstimatorConfig ensures invalid configurations are rejected.
func TestNewEstimatorConfig(t *testing.T) {
	t.Parallel()

	_, err := NewEstimator(DefaultEstimatorConfig())
	require.NoError(t, err)

	mutations := []func(*EstimatorConfig){
		func(c *EstimatorConfig) { c.MaxConfirms = 0 },
		func(c *EstimatorConfig) { c.MaxConfirms = maxAllowedConfirms + 1 },
		func(c *EstimatorConfig) { c.Decay = 1 },
		func(c *EstimatorConfig) { c.Decay = 0 },
		func(c *EstimatorConfig) { c.MinSuccessPct = 0 },
		func(c *EstimatorConfig) { c.MaxSamplesPerDelay = 0 },
	}
	for i, mutate := range mutations {
		cfg := DefaultEstimatorConfig()
		mutate(cfg)
		_, err := NewEstimator(cfg)
		require.Errorf(t, err, "mutation #%d", i)
	}
}

// TestDefaultBuckets ensures the default bucket bounds span the documented
// ranges and end with +Inf.
func TestDefaultBuckets(t *testing.T) {
	t.Parallel()

	fee := feeBuckets()
	require.Equal(t, float64(minBucketFeeRate), fee[0])
	require.True(t, math.IsInf(fee[len(fee)-1], 1))
	require.LessOrEqual(t, fee[len(fee)-2], float64(maxBucketFeeRate))

	pri := priorityBuckets()
	require.Equal(t, float64(minBucketPriority), pri[0])
	require.Equal(t, float64(minBucketPriority*2), pri[1])
	require.True(t, math.IsInf(pri[len(pri)-1], 1))
}

// TestEstimateWithoutData ensures estimates are refused until enough data is
// seen and targets outside the tracked range are rejected.
func TestEstimateWithoutData(t *testing.T) {
	t.Parallel()

	est := newTestEstimator(t)
	_, err := est.EstimateFee(1)
	require.ErrorIs(t, err, ErrInsufficientData)
	_, err = est.EstimatePriority(1)
	require.ErrorIs(t, err, ErrInsufficientData)

	for _, target := range []int{0, -1, DefaultMaxConfirms + 1} {
		_, err = est.EstimateFee(target)
		require.ErrorIs(t, err, ErrTargetOutOfRange)
		_, err = est.EstimatePriority(target)
		require.ErrorIs(t, err, ErrTargetOutOfRange)
	}
}

// TestSeenBlockDelayOne ensures transactions confirmed in the block after
// they entered the pool produce estimates for every target.
func TestSeenBlockDelayOne(t *testing.T) {
	t.Parallel()

	est := newTestEstimator(t)
	for height := int32(1); height <= 5; height++ {
		entries := feeEntries(10, 10000, height-1)
		entries = append(entries, priorityEntries(10, 1e9, height-2)...)
		est.SeenBlock(entries, height, 1000)
	}
	require.Equal(t, int32(5), est.BestSeenHeight())

	for _, target := range []int{1, 2, DefaultMaxConfirms} {
		rate, err := est.EstimateFee(target)
		require.NoError(t, err, spew.Sdump(est.feeStats.txCtAvg))
		require.Equal(t, FeeRate(10000), rate)
	}

	// Priority samples waited two blocks.
	_, err := est.EstimatePriority(1)
	require.ErrorIs(t, err, ErrInsufficientData)
	for _, target := range []int{2, DefaultMaxConfirms} {
		priority, err := est.EstimatePriority(target)
		require.NoError(t, err, spew.Sdump(est.priStats.txCtAvg))
		require.Equal(t, 1e9, priority)
	}
}

// TestSeenBlockLongerDelay ensures a target shorter than the observed delay
// has no estimate while longer targets do.
func TestSeenBlockLongerDelay(t *testing.T) {
	t.Parallel()

	est := newTestEstimator(t)
	for height := int32(10); height <= 15; height++ {
		est.SeenBlock(feeEntries(10, 20000, height-3), height, 1000)
	}

	_, err := est.EstimateFee(1)
	require.ErrorIs(t, err, ErrInsufficientData)
	_, err = est.EstimateFee(2)
	require.ErrorIs(t, err, ErrInsufficientData)

	rate, err := est.EstimateFee(3)
	require.NoError(t, err)
	require.Equal(t, FeeRate(20000), rate)
}

// TestSeenBlockClassification ensures only unambiguous samples are recorded
// and at most MaxSamplesPerDelay entries per delay are used.
func TestSeenBlockClassification(t *testing.T) {
	t.Parallel()

	est := newTestEstimator(t)

	var entries []ConfirmedEntry
	// Pays enough and is free-eligible: ambiguous.
	entries = append(entries, &testEntry{fee: 2500, size: 250, height: 1,
		priority: 1e9})
	// Pays more than 10000 times the relay fee: insane.
	entries = append(entries, &testEntry{fee: 1e8, size: 250, height: 1})
	// Pays only the relay fee without priority: neither.
	entries = append(entries, &testEntry{fee: 250, size: 250, height: 1})
	// Entered the pool at the block height: no delay.
	entries = append(entries, &testEntry{fee: 2500, size: 250, height: 2})
	est.SeenBlock(entries, 2, 1000)

	for b := range est.feeStats.buckets {
		require.Zero(t, est.feeStats.txCtAvg[b], "fee bucket %d", b)
	}
	for b := range est.priStats.buckets {
		require.Zero(t, est.priStats.txCtAvg[b], "priority bucket %d", b)
	}

	// Thirty entries of the same delay only contribute ten samples.
	est.SeenBlock(feeEntries(30, 10000, 2), 3, 1000)
	idx := est.feeStats.bucketIndex(10000)
	require.Equal(t, float64(DefaultMaxSamplesPerDelay),
		est.feeStats.txCtAvg[idx])

	// Delays beyond the tracked range count in the last range.
	est.SeenBlock(feeEntries(1, 10000, 1), 100, 1000)
	require.Equal(t, 1.0, est.feeStats.confAvg[DefaultMaxConfirms-1][idx]-
		est.feeStats.confAvg[DefaultMaxConfirms-2][idx])
}

// TestSeenBlockIgnoresOldHeights ensures blocks at or below the best seen
// height leave the statistics untouched.
func TestSeenBlockIgnoresOldHeights(t *testing.T) {
	t.Parallel()

	est := newTestEstimator(t)
	est.SeenBlock(feeEntries(5, 10000, 9), 10, 1000)
	before := est.DumpBuckets()

	est.SeenBlock(feeEntries(5, 50000, 8), 10, 1000)
	est.SeenBlock(feeEntries(5, 50000, 7), 9, 1000)
	require.Equal(t, before, est.DumpBuckets())
	require.Equal(t, int32(10), est.BestSeenHeight())
}

// TestEstimatorWriteRead ensures the serialized state round trips and that the
// relay fee passed to Read bounds later fee estimates.
func TestEstimatorWriteRead(t *testing.T) {
	t.Parallel()

	est := newTestEstimator(t)
	for height := int32(1); height <= 5; height++ {
		entries := feeEntries(10, 10000, height-1)
		entries = append(entries, priorityEntries(4, 1e9, height-2)...)
		est.SeenBlock(entries, height, 1000)
	}

	var buf bytes.Buffer
	require.NoError(t, est.Write(&buf))

	loaded, err := NewEstimator(DefaultEstimatorConfig())
	require.NoError(t, err)
	require.NoError(t, loaded.Read(bytes.NewReader(buf.Bytes()), 1000))

	require.Equal(t, est.DumpBuckets(), loaded.DumpBuckets())
	require.Equal(t, est.BestSeenHeight(), loaded.BestSeenHeight())
	for target := 1; target <= DefaultMaxConfirms; target++ {
		wantRate, wantErr := est.EstimateFee(target)
		gotRate, gotErr := loaded.EstimateFee(target)
		require.Equal(t, wantErr, gotErr)
		require.Equal(t, wantRate, gotRate)

		wantPri, wantErr := est.EstimatePriority(target)
		gotPri, gotErr := loaded.EstimatePriority(target)
		require.Equal(t, wantErr, gotErr)
		require.Equal(t, wantPri, gotPri)
	}

	// A higher relay fee raises the fee estimate.
	require.NoError(t, loaded.Read(bytes.NewReader(buf.Bytes()), 50000))
	rate, err := loaded.EstimateFee(1)
	require.NoError(t, err)
	require.Equal(t, FeeRate(50000), rate)
}

// writeStatsPayload serializes a payload with the passed statistics for both
// the fee and priority sections.
func writeStatsPayload(t *testing.T, required uint32, s *txConfirmStats) []byte {
	t.Helper()

	var buf bytes.Buffer
	var hdr [12]byte
	byteOrder.PutUint32(hdr[0:4], required)
	byteOrder.PutUint32(hdr[4:8], required)
	byteOrder.PutUint32(hdr[8:12], 77)
	buf.Write(hdr[:])
	require.NoError(t, s.write(&buf))
	require.NoError(t, s.write(&buf))
	return buf.Bytes()
}

// TestEstimatorReadRejects ensures invalid payloads are rejected without
// modifying the estimator.
func TestEstimatorReadRejects(t *testing.T) {
	t.Parallel()

	good := newTxConfirmStats([]float64{1, 2, math.Inf(1)}, 3, 0.5)

	nonMonotonic := newTxConfirmStats([]float64{2, 1, math.Inf(1)}, 3, 0.5)

	negative := newTxConfirmStats([]float64{1, 2, math.Inf(1)}, 3, 0.5)
	negative.txCtAvg[1] = -1

	notANumber := newTxConfirmStats([]float64{1, 2, math.Inf(1)}, 3, 0.5)
	notANumber.confAvg[2][0] = math.NaN()

	badDecay := newTxConfirmStats([]float64{1, 2, math.Inf(1)}, 3, 1.5)

	goodPayload := writeStatsPayload(t, estimatorVersion, good)
	oversized := append([]byte(nil), goodPayload[:20]...)
	oversized = append(oversized, 0xfd, 0xff, 0xff)

	tests := []struct {
		name    string
		payload []byte
	}{
		{"newer required version", writeStatsPayload(t, estimatorVersion+1, good)},
		{"non-monotonic bounds", writeStatsPayload(t, estimatorVersion, nonMonotonic)},
		{"negative count", writeStatsPayload(t, estimatorVersion, negative)},
		{"NaN count", writeStatsPayload(t, estimatorVersion, notANumber)},
		{"bad decay", writeStatsPayload(t, estimatorVersion, badDecay)},
		{"truncated", goodPayload[:len(goodPayload)-1]},
		{"oversized vector", oversized},
		{"empty", nil},
	}

	est := newTestEstimator(t)
	est.SeenBlock(feeEntries(10, 10000, 4), 5, 1000)
	before := est.DumpBuckets()

	for _, test := range tests {
		err := est.Read(bytes.NewReader(test.payload), 1000)
		require.Error(t, err, test.name)
		require.Equal(t, before, est.DumpBuckets(), test.name)
		require.Equal(t, int32(5), est.BestSeenHeight(), test.name)
	}

	// The well formed payload is accepted.
	require.NoError(t, est.Read(bytes.NewReader(goodPayload), 1000))
	require.Equal(t, int32(77), est.BestSeenHeight())
	require.Equal(t, 3, est.MaxConfirms())
}
