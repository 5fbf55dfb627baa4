// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fees

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/btcsuite/btcd/wire"
)

const (
	// maxAllowedBuckets is an upper bound of how many buckets a stream may
	// describe.
	maxAllowedBuckets = 2000

	// maxAllowedConfirms is an upper bound of how many confirmation ranges
	// a stream may describe.
	maxAllowedConfirms = 1008
)

var (
	byteOrder = binary.LittleEndian

	errNoAnswer = errors.New("no bucket range reached the success threshold")
)

// txConfirmStats tracks, for a set of value buckets, how many transactions
// were confirmed within each number of blocks.  All totals are moving averages
// that decay by a constant factor every block.
type txConfirmStats struct {
	// buckets are the inclusive upper bounds of each bucket.  The last one
	// is +Inf.
	buckets []float64

	// confAvg[c][b] is the decayed count of transactions in bucket b that
	// confirmed within c+1 blocks.
	confAvg [][]float64

	// txCtAvg[b] is the decayed count of transactions in bucket b.
	txCtAvg []float64

	// avg[b] is the decayed sum of the values of transactions in bucket b.
	avg []float64

	decay float64

	// Totals of the block being folded in.
	curBlockConf [][]int
	curBlockTxCt []int
	curBlockVal  []float64
}

// newTxConfirmStats returns empty statistics over the passed bucket bounds.
func newTxConfirmStats(buckets []float64, maxConfirms int, decay float64) *txConfirmStats {
	s := &txConfirmStats{
		buckets: buckets,
		confAvg: make([][]float64, maxConfirms),
		txCtAvg: make([]float64, len(buckets)),
		avg:     make([]float64, len(buckets)),
		decay:   decay,
	}
	for c := range s.confAvg {
		s.confAvg[c] = make([]float64, len(buckets))
	}
	s.initCurrent()
	return s
}

// initCurrent allocates the per-block totals to match the buckets and
// confirmation ranges.
func (s *txConfirmStats) initCurrent() {
	s.curBlockConf = make([][]int, len(s.confAvg))
	for c := range s.curBlockConf {
		s.curBlockConf[c] = make([]int, len(s.buckets))
	}
	s.curBlockTxCt = make([]int, len(s.buckets))
	s.curBlockVal = make([]float64, len(s.buckets))
}

func (s *txConfirmStats) maxConfirms() int {
	return len(s.confAvg)
}

// bucketIndex returns the lowest bucket whose upper bound is not below val.
func (s *txConfirmStats) bucketIndex(val float64) int {
	idx := sort.SearchFloat64s(s.buckets, val)
	if idx >= len(s.buckets) {
		idx = len(s.buckets) - 1
	}
	return idx
}

// clearCurrent resets the per-block totals before a new block is recorded.
func (s *txConfirmStats) clearCurrent() {
	for b := range s.buckets {
		for c := range s.curBlockConf {
			s.curBlockConf[c][b] = 0
		}
		s.curBlockTxCt[b] = 0
		s.curBlockVal[b] = 0
	}
}

// record adds a transaction that took blocksToConfirm blocks to confirm with
// the given value to the current block.  blocksToConfirm is 1-based.
func (s *txConfirmStats) record(blocksToConfirm int, val float64) {
	if blocksToConfirm < 1 {
		return
	}
	b := s.bucketIndex(val)
	for c := blocksToConfirm; c <= len(s.curBlockConf); c++ {
		s.curBlockConf[c-1][b]++
	}
	s.curBlockTxCt[b]++
	s.curBlockVal[b] += val
}

// updateMovingAverages decays the historical averages and folds in the
// current block.
func (s *txConfirmStats) updateMovingAverages() {
	for b := range s.buckets {
		for c := range s.confAvg {
			s.confAvg[c][b] = s.confAvg[c][b]*s.decay +
				float64(s.curBlockConf[c][b])
		}
		s.avg[b] = s.avg[b]*s.decay + s.curBlockVal[b]
		s.txCtAvg[b] = s.txCtAvg[b]*s.decay + float64(s.curBlockTxCt[b])
	}
}

// estimateMedianVal returns the average value of the median transaction in
// the lowest range of buckets such that it and every higher range confirmed
// at least minSuccess of their transactions within confTarget blocks.
// Buckets are combined into ranges until each holds at least sufficientTxVal
// transactions per block on average.
func (s *txConfirmStats) estimateMedianVal(confTarget int, sufficientTxVal,
	minSuccess float64) (float64, error) {

	var nConf, totalNum float64
	maxBucket := len(s.buckets) - 1

	// The near and far variables define the range being combined, from
	// the highest value bucket downwards.  The best variables are the last
	// range that still had a high enough confirmation rate.
	curNearBucket := maxBucket
	bestNearBucket := maxBucket
	bestFarBucket := maxBucket
	foundAnswer := false
	threshold := sufficientTxVal / (1 - s.decay)

	for b := maxBucket; b >= 0; b-- {
		nConf += s.confAvg[confTarget-1][b]
		totalNum += s.txCtAvg[b]

		// Only test once the range holds enough data points so every
		// confirmation target looks at the same bucket breaks.
		if totalNum < threshold {
			continue
		}
		if nConf/totalNum < minSuccess {
			break
		}

		foundAnswer = true
		nConf = 0
		totalNum = 0
		bestFarBucket = b
		bestNearBucket = curNearBucket
		curNearBucket = b - 1
	}

	if !foundAnswer {
		return 0, errNoAnswer
	}

	// Report the average value of the bucket holding the median
	// transaction of the best range.
	var txSum float64
	for b := bestFarBucket; b <= bestNearBucket; b++ {
		txSum += s.txCtAvg[b]
	}
	if txSum == 0 {
		return 0, errNoAnswer
	}
	txSum /= 2
	for b := bestFarBucket; b <= bestNearBucket; b++ {
		if s.txCtAvg[b] < txSum {
			txSum -= s.txCtAvg[b]
			continue
		}
		return s.avg[b] / s.txCtAvg[b], nil
	}

	return 0, errNoAnswer
}

// writeFloats writes a varint length prefixed vector of float64 values.
func writeFloats(w io.Writer, vals []float64) error {
	err := wire.WriteVarInt(w, 0, uint64(len(vals)))
	if err != nil {
		return err
	}
	var buf [8]byte
	for _, v := range vals {
		byteOrder.PutUint64(buf[:], math.Float64bits(v))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// readFloats reads a vector written by writeFloats holding at most maxLen
// values.
func readFloats(r io.Reader, maxLen uint64) ([]float64, error) {
	n, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, err
	}
	if n > maxLen {
		return nil, fmt.Errorf("vector of %d values exceeds the maximum "+
			"of %d", n, maxLen)
	}
	vals := make([]float64, n)
	var buf [8]byte
	for i := range vals {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		vals[i] = math.Float64frombits(byteOrder.Uint64(buf[:]))
	}
	return vals, nil
}

// write serializes the decay, the bucket bounds and the moving averages.
func (s *txConfirmStats) write(w io.Writer) error {
	var buf [8]byte
	byteOrder.PutUint64(buf[:], math.Float64bits(s.decay))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	if err := writeFloats(w, s.buckets); err != nil {
		return err
	}
	if err := writeFloats(w, s.avg); err != nil {
		return err
	}
	if err := writeFloats(w, s.txCtAvg); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, 0, uint64(len(s.confAvg))); err != nil {
		return err
	}
	for _, row := range s.confAvg {
		if err := writeFloats(w, row); err != nil {
			return err
		}
	}
	return nil
}

// checkCounts returns an error when any value is NaN or negative.
func checkCounts(name string, vals []float64) error {
	for i, v := range vals {
		if math.IsNaN(v) || v < 0 {
			return fmt.Errorf("%s[%d] has invalid value %v", name, i, v)
		}
	}
	return nil
}

// readTxConfirmStats deserializes statistics written by write and validates
// them.  Nothing is shared with any existing statistics.
func readTxConfirmStats(r io.Reader) (*txConfirmStats, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	decay := math.Float64frombits(byteOrder.Uint64(buf[:]))
	if !(decay > 0 && decay < 1) {
		return nil, fmt.Errorf("decay %v must be between 0 and 1", decay)
	}

	buckets, err := readFloats(r, maxAllowedBuckets)
	if err != nil {
		return nil, err
	}
	if len(buckets) == 0 {
		return nil, errors.New("no buckets")
	}
	for i, bound := range buckets {
		if math.IsNaN(bound) || bound < 0 {
			return nil, fmt.Errorf("bucket bound %d has invalid value %v",
				i, bound)
		}
		if i > 0 && bound <= buckets[i-1] {
			return nil, fmt.Errorf("bucket bound %d (%v) is not above "+
				"the previous bound (%v)", i, bound, buckets[i-1])
		}
	}

	avg, err := readFloats(r, maxAllowedBuckets)
	if err != nil {
		return nil, err
	}
	txCtAvg, err := readFloats(r, maxAllowedBuckets)
	if err != nil {
		return nil, err
	}
	if len(avg) != len(buckets) || len(txCtAvg) != len(buckets) {
		return nil, errors.New("mismatch in bucket count")
	}
	if err := checkCounts("avg", avg); err != nil {
		return nil, err
	}
	if err := checkCounts("txCtAvg", txCtAvg); err != nil {
		return nil, err
	}

	numConfirms, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, err
	}
	if numConfirms == 0 || numConfirms > maxAllowedConfirms {
		return nil, fmt.Errorf("confirmation range count %d must be "+
			"between 1 and %d", numConfirms, maxAllowedConfirms)
	}
	confAvg := make([][]float64, numConfirms)
	for c := range confAvg {
		row, err := readFloats(r, maxAllowedBuckets)
		if err != nil {
			return nil, err
		}
		if len(row) != len(buckets) {
			return nil, errors.New("mismatch in confirmation row size")
		}
		if err := checkCounts("confAvg", row); err != nil {
			return nil, err
		}
		confAvg[c] = row
	}

	s := &txConfirmStats{
		buckets: buckets,
		confAvg: confAvg,
		txCtAvg: txCtAvg,
		avg:     avg,
		decay:   decay,
	}
	s.initCurrent()
	return s, nil
}
