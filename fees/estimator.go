// Copyright (c) 2018-2020 The Decred developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fees

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/mining"
)

const (
	// DefaultMaxConfirms is the default number of confirmation ranges to
	// track in the estimator.
	DefaultMaxConfirms = 25

	// DefaultDecay is the default factor applied to the statistics every
	// block so older data weighs less.
	DefaultDecay = 0.998

	// DefaultMinSuccessPct is the default fraction of transactions in a
	// bucket range that must have confirmed within the target for the
	// range to be reported.
	DefaultMinSuccessPct = 0.85

	// DefaultSufficientFeeTxs is the default average number of fee-driven
	// transactions per block a bucket range needs before it is evaluated.
	DefaultSufficientFeeTxs = 1

	// DefaultSufficientPriorityTxs is the default average number of
	// priority-driven transactions per block a bucket range needs before it
	// is evaluated.
	DefaultSufficientPriorityTxs = 0.2

	// DefaultMaxSamplesPerDelay is the default number of transactions per
	// confirmation delay taken from each block.
	DefaultMaxSamplesPerDelay = 10

	// estimatorVersion is the version of the serialized estimator payload.
	estimatorVersion uint32 = 1

	// Fee rate buckets range from minBucketFeeRate to maxBucketFeeRate
	// satoshi per kilobyte, each feeBucketSpacing times the previous one.
	minBucketFeeRate = 1000
	maxBucketFeeRate = 1e7
	feeBucketSpacing = 1.1

	// Priority buckets range from minBucketPriority to maxBucketPriority,
	// each priBucketSpacing times the previous one.
	minBucketPriority = 1e5
	maxBucketPriority = 1e16
	priBucketSpacing  = 2

	// maxSaneFeeMultiplier bounds the fee rate of a sample relative to the
	// minimum relay fee.
	maxSaneFeeMultiplier = 10000
)

var (
	// ErrTargetOutOfRange is returned when an estimate is requested for a
	// confirmation target the estimator does not track.
	ErrTargetOutOfRange = errors.New("confirmation target out of range")

	// ErrInsufficientData is returned when not enough transactions have
	// been seen to produce an estimate for the target.
	ErrInsufficientData = errors.New("insufficient data for estimate")
)

// ConfirmedEntry describes a pool transaction that was included in a block.
type ConfirmedEntry interface {
	// Fee returns the absolute fee paid by the transaction.
	Fee() btcutil.Amount

	// TxSize returns the serialized size of the transaction.
	TxSize() int64

	// Height returns the chain height when the transaction entered the
	// pool.
	Height() int32

	// GetPriority returns the priority of the transaction at the passed
	// height.
	GetPriority(currentHeight int32) float64
}

// EstimatorConfig stores the configuration parameters for a fee estimator.
type EstimatorConfig struct {
	// MaxConfirms is the number of confirmation ranges to track.
	MaxConfirms int

	// Decay is the factor applied to all statistics every block.  It must
	// be in (0, 1).
	Decay float64

	// MinSuccessPct is the fraction of transactions that must confirm
	// within the target for a bucket range to qualify.
	MinSuccessPct float64

	// SufficientFeeTxs and SufficientPriorityTxs are the average number
	// of transactions per block a bucket range must hold before it is
	// evaluated.
	SufficientFeeTxs      float64
	SufficientPriorityTxs float64

	// MaxSamplesPerDelay limits how many transactions of each
	// confirmation delay are taken from a single block.
	MaxSamplesPerDelay int

	// MinRelayFee is the relay fee the samples and estimates are judged
	// against until a block or a stream provides a newer one.
	MinRelayFee FeeRate

	// Seed seeds the sample selection.
	Seed int64
}

// DefaultEstimatorConfig returns the configuration used by the node.
func DefaultEstimatorConfig() *EstimatorConfig {
	return &EstimatorConfig{
		MaxConfirms:           DefaultMaxConfirms,
		Decay:                 DefaultDecay,
		MinSuccessPct:         DefaultMinSuccessPct,
		SufficientFeeTxs:      DefaultSufficientFeeTxs,
		SufficientPriorityTxs: DefaultSufficientPriorityTxs,
		MaxSamplesPerDelay:    DefaultMaxSamplesPerDelay,
		MinRelayFee:           minBucketFeeRate,
		Seed:                  1,
	}
}

// Estimator tracks how long confirmed pool transactions took to be mined,
// bucketed by fee rate and by priority, in order to estimate the fee rate or
// priority needed to confirm within a target number of blocks.
type Estimator struct {
	lock sync.RWMutex

	feeStats *txConfirmStats
	priStats *txConfirmStats

	bestSeenHeight        int32
	minRelayFee           FeeRate
	minSuccess            float64
	sufficientFeeTxs      float64
	sufficientPriorityTxs float64
	maxSamples            int
	rng                   *rand.Rand
}

// feeBuckets returns the default fee rate bucket bounds.
func feeBuckets() []float64 {
	var buckets []float64
	for f := float64(minBucketFeeRate); f <= maxBucketFeeRate; f *= feeBucketSpacing {
		buckets = append(buckets, f)
	}
	return append(buckets, math.Inf(1))
}

// priorityBuckets returns the default priority bucket bounds.
func priorityBuckets() []float64 {
	var buckets []float64
	for p := float64(minBucketPriority); p <= maxBucketPriority; p *= priBucketSpacing {
		buckets = append(buckets, p)
	}
	return append(buckets, math.Inf(1))
}

// NewEstimator returns an empty estimator given a config.  It needs to be fed
// confirmed blocks before it can produce estimates.
func NewEstimator(cfg *EstimatorConfig) (*Estimator, error) {
	if cfg.MaxConfirms < 1 || cfg.MaxConfirms > maxAllowedConfirms {
		return nil, fmt.Errorf("confirmation count requested (%d) must be "+
			"between 1 and %d", cfg.MaxConfirms, maxAllowedConfirms)
	}
	if !(cfg.Decay > 0 && cfg.Decay < 1) {
		return nil, errors.New("decay must be between 0 and 1")
	}
	if !(cfg.MinSuccessPct > 0 && cfg.MinSuccessPct <= 1) {
		return nil, errors.New("minimum success percentage must be " +
			"in (0, 1]")
	}
	if cfg.MaxSamplesPerDelay < 1 {
		return nil, errors.New("at least one sample per delay is required")
	}

	return &Estimator{
		feeStats: newTxConfirmStats(feeBuckets(), cfg.MaxConfirms,
			cfg.Decay),
		priStats: newTxConfirmStats(priorityBuckets(), cfg.MaxConfirms,
			cfg.Decay),
		minRelayFee:           cfg.MinRelayFee,
		minSuccess:            cfg.MinSuccessPct,
		sufficientFeeTxs:      cfg.SufficientFeeTxs,
		sufficientPriorityTxs: cfg.SufficientPriorityTxs,
		maxSamples:            cfg.MaxSamplesPerDelay,
		rng:                   rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// BestSeenHeight returns the height of the last block folded into the
// statistics.
func (e *Estimator) BestSeenHeight() int32 {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.bestSeenHeight
}

// MaxConfirms returns the highest confirmation target the estimator tracks.
func (e *Estimator) MaxConfirms() int {
	e.lock.RLock()
	defer e.lock.RUnlock()
	return e.feeStats.maxConfirms()
}

// isSaneFee returns whether a sample's fee rate is plausible relative to the
// minimum relay fee.
func isSaneFee(rate, minRelayFee FeeRate) bool {
	return rate >= 0 && int64(rate) <= int64(minRelayFee)*maxSaneFeeMultiplier
}

// isSanePriority returns whether a sample's priority is usable.
func isSanePriority(priority float64) bool {
	return !math.IsNaN(priority) && priority >= 0
}

// SeenBlock folds the pool entries confirmed by the block at the passed
// height into the statistics.  Blocks at or below the best seen height are
// ignored, which keeps reorganizations from counting transactions twice.
//
// From every confirmation delay at most MaxSamplesPerDelay randomly chosen
// entries are used.  Each is recorded as fee-driven when it pays more than
// the relay fee without being eligible to relay for free, or as
// priority-driven when it is free-eligible without paying more than the relay
// fee.  Any other entry says nothing about either and is skipped.
func (e *Estimator) SeenBlock(entries []ConfirmedEntry, height int32, minRelayFee FeeRate) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if height <= e.bestSeenHeight {
		log.Debugf("Ignoring block at height %d (best seen %d)", height,
			e.bestSeenHeight)
		return
	}
	e.bestSeenHeight = height
	e.minRelayFee = minRelayFee

	maxConfirms := e.feeStats.maxConfirms()
	byDelay := make([][]ConfirmedEntry, maxConfirms)
	for _, entry := range entries {
		delay := int(height - entry.Height())
		if delay <= 0 {
			// Entered the pool at or after this block's height, so
			// the block says nothing about its wait.
			continue
		}
		if delay > maxConfirms {
			delay = maxConfirms
		}
		byDelay[delay-1] = append(byDelay[delay-1], entry)
	}

	e.feeStats.clearCurrent()
	e.priStats.clearCurrent()

	var numFee, numPriority int
	for i, bucket := range byDelay {
		e.rng.Shuffle(len(bucket), func(a, b int) {
			bucket[a], bucket[b] = bucket[b], bucket[a]
		})
		if len(bucket) > e.maxSamples {
			bucket = bucket[:e.maxSamples]
		}
		for _, entry := range bucket {
			rate := NewFeeRateFromFee(entry.Fee(), entry.TxSize())
			priority := entry.GetPriority(entry.Height())

			sufficientFee := rate > minRelayFee
			sufficientPriority := mining.AllowFree(priority)
			switch {
			case sufficientFee && !sufficientPriority &&
				isSaneFee(rate, minRelayFee):
				e.feeStats.record(i+1, float64(rate))
				numFee++

			case sufficientPriority && !sufficientFee &&
				isSanePriority(priority):
				e.priStats.record(i+1, priority)
				numPriority++
			}
		}
	}

	e.feeStats.updateMovingAverages()
	e.priStats.updateMovingAverages()

	log.Debugf("Block %d: %d entries, %d fee samples, %d priority samples",
		height, len(entries), numFee, numPriority)
}

// checkTarget validates a confirmation target against the tracked range.
func (e *Estimator) checkTarget(target int) error {
	if target < 1 || target > e.feeStats.maxConfirms() {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrTargetOutOfRange,
			target, e.feeStats.maxConfirms())
	}
	return nil
}

// EstimateFee returns the fee rate that confirmed transactions needed to be
// mined within target blocks.  The estimate is never below the minimum relay
// fee.
//
// This function is safe for concurrent access.
func (e *Estimator) EstimateFee(target int) (FeeRate, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	if err := e.checkTarget(target); err != nil {
		return 0, err
	}
	median, err := e.feeStats.estimateMedianVal(target,
		e.sufficientFeeTxs, e.minSuccess)
	if err != nil {
		return 0, ErrInsufficientData
	}
	rate := FeeRate(median)
	if rate < e.minRelayFee {
		rate = e.minRelayFee
	}
	return rate, nil
}

// EstimatePriority returns the priority that confirmed free transactions
// needed to be mined within target blocks.
//
// This function is safe for concurrent access.
func (e *Estimator) EstimatePriority(target int) (float64, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	if err := e.checkTarget(target); err != nil {
		return 0, err
	}
	median, err := e.priStats.estimateMedianVal(target,
		e.sufficientPriorityTxs, e.minSuccess)
	if err != nil {
		return 0, ErrInsufficientData
	}
	return median, nil
}

// Write serializes the estimator state.
//
// The payload is the required reader version and the writer version, both
// uint32, the best seen height as int32, then the fee rate statistics and the
// priority statistics.
func (e *Estimator) Write(w io.Writer) error {
	e.lock.RLock()
	defer e.lock.RUnlock()

	var hdr [12]byte
	byteOrder.PutUint32(hdr[0:4], estimatorVersion)
	byteOrder.PutUint32(hdr[4:8], estimatorVersion)
	byteOrder.PutUint32(hdr[8:12], uint32(e.bestSeenHeight))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if err := e.feeStats.write(w); err != nil {
		return fmt.Errorf("unable to write fee statistics: %w", err)
	}
	if err := e.priStats.write(w); err != nil {
		return fmt.Errorf("unable to write priority statistics: %w", err)
	}
	return nil
}

// Read replaces the estimator state with a payload produced by Write and sets
// the minimum relay fee estimates are judged against.  The state is only
// replaced when the whole payload is valid.
func (e *Estimator) Read(r io.Reader, minRelayFee FeeRate) error {
	var hdr [12]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return err
	}
	required := byteOrder.Uint32(hdr[0:4])
	if required > estimatorVersion {
		return fmt.Errorf("estimator payload requires version %d, "+
			"only %d is supported", required, estimatorVersion)
	}
	bestSeenHeight := int32(byteOrder.Uint32(hdr[8:12]))

	feeStats, err := readTxConfirmStats(r)
	if err != nil {
		return fmt.Errorf("invalid fee statistics: %w", err)
	}
	priStats, err := readTxConfirmStats(r)
	if err != nil {
		return fmt.Errorf("invalid priority statistics: %w", err)
	}
	if feeStats.maxConfirms() != priStats.maxConfirms() {
		return errors.New("fee and priority statistics track different " +
			"confirmation ranges")
	}

	e.lock.Lock()
	e.feeStats = feeStats
	e.priStats = priStats
	e.bestSeenHeight = bestSeenHeight
	e.minRelayFee = minRelayFee
	e.lock.Unlock()

	log.Debugf("Read estimates up to height %d (%d fee buckets, %d "+
		"priority buckets)", bestSeenHeight, len(feeStats.buckets),
		len(priStats.buckets))
	return nil
}

// dumpStats renders one statistics table.  scale divides the reported values.
func dumpStats(sb *strings.Builder, title string, s *txConfirmStats, scale float64) {
	fmt.Fprintf(sb, "%s\n%16s|", title, "bucket")
	for c := 0; c < s.maxConfirms(); c++ {
		fmt.Fprintf(sb, " %13d|", c+1)
	}
	sb.WriteString("\n")

	for b, bound := range s.buckets {
		fmt.Fprintf(sb, "%16.8g|", bound/scale)
		for c := 0; c < s.maxConfirms(); c++ {
			fmt.Fprintf(sb, " %6.1f/%6.1f|", s.confAvg[c][b], s.txCtAvg[b])
		}
		avg := float64(0)
		if s.txCtAvg[b] > 0 {
			avg = s.avg[b] / s.txCtAvg[b] / scale
		}
		fmt.Fprintf(sb, " avg %.8g\n", avg)
	}
}

// DumpBuckets returns the internal estimator state as a string.  Every cell
// shows the decayed count confirmed within that many blocks over the decayed
// total for the bucket.
func (e *Estimator) DumpBuckets() string {
	e.lock.RLock()
	defer e.lock.RUnlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "best seen height %d\n", e.bestSeenHeight)
	dumpStats(&sb, "fee rate (DSLK/kB)", e.feeStats, btcutil.SatoshiPerBitcoin)
	dumpStats(&sb, "priority", e.priStats, 1)
	return sb.String()
}
