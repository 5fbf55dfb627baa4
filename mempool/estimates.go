// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/fees"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/version"
)

// estimatesRequiredVersion is the oldest client version able to read the fee
// estimate streams written by this one.
const estimatesRequiredVersion int32 = 1000000

// errUpVersion is returned when a fee estimate stream needs a newer client.
var errUpVersion = errors.New("up-version fee estimate data")

// encodeFeeEstimates serializes the version header and the estimator state.
//
// This function MUST be called with the mempool lock held.
func (mp *TxPool) encodeFeeEstimates() ([]byte, error) {
	var buf bytes.Buffer
	hdr := [2]int32{estimatesRequiredVersion, version.Numeric()}
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		return nil, err
	}
	if err := mp.estimator.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFeeEstimates writes the fee estimator state to w, preceded by the
// client version required to read it and the version that wrote it.  Errors
// are logged and reported as false.
//
// This function is safe for concurrent access.
func (mp *TxPool) WriteFeeEstimates(w io.Writer) bool {
	mp.mtx.Lock()
	data, err := mp.encodeFeeEstimates()
	mp.mtx.Unlock()
	if err != nil {
		log.Warnf("Unable to serialize fee estimates: %v", err)
		return false
	}

	if _, err := w.Write(data); err != nil {
		log.Warnf("Unable to write fee estimates: %v", err)
		return false
	}
	return true
}

// readFeeEstimates reads and validates the version header from r and
// returns the estimator payload that follows.
func readFeeEstimates(r io.Reader) ([]byte, error) {
	var hdr [2]int32
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("unable to read version header: %w", err)
	}
	required, writer := hdr[0], hdr[1]
	if required > version.Numeric() {
		return nil, fmt.Errorf("%w: requires %s, written by %s",
			errUpVersion, version.FormatNumeric(required),
			version.FormatNumeric(writer))
	}
	return io.ReadAll(r)
}

// ReadFeeEstimates replaces the fee estimator state with a stream written by
// WriteFeeEstimates.  Streams that require a newer client or fail to parse
// leave the estimator untouched.  Errors are logged and reported as false.
//
// This function is safe for concurrent access.
func (mp *TxPool) ReadFeeEstimates(r io.Reader) bool {
	payload, err := readFeeEstimates(r)
	if err != nil {
		log.Warnf("Unable to read fee estimates: %v", err)
		return false
	}

	mp.mtx.Lock()
	err = mp.estimator.Read(bytes.NewReader(payload), mp.minRelayFee())
	mp.mtx.Unlock()
	if err != nil {
		log.Warnf("Unable to read fee estimates: %v", err)
		return false
	}
	return true
}

// SaveFeeEstimates writes the fee estimator state to store.
//
// This function is safe for concurrent access.
func (mp *TxPool) SaveFeeEstimates(store fees.Store) bool {
	var buf bytes.Buffer
	if !mp.WriteFeeEstimates(&buf) {
		return false
	}
	if err := store.Put(buf.Bytes()); err != nil {
		log.Warnf("Unable to save fee estimates: %v", err)
		return false
	}
	return true
}

// LoadFeeEstimates restores the fee estimator state from store.  A store
// without estimates is reported as false without a warning.
//
// This function is safe for concurrent access.
func (mp *TxPool) LoadFeeEstimates(store fees.Store) bool {
	data, err := store.Get()
	if errors.Is(err, fees.ErrNoEstimates) {
		log.Debugf("No saved fee estimates")
		return false
	}
	if err != nil {
		log.Warnf("Unable to load fee estimates: %v", err)
		return false
	}
	return mp.ReadFeeEstimates(bytes.NewReader(data))
}

// EstimateFee returns the fee rate needed for a transaction to be mined
// within target blocks.
//
// This function is safe for concurrent access.
func (mp *TxPool) EstimateFee(target int) (fees.FeeRate, error) {
	return mp.estimator.EstimateFee(target)
}

// EstimatePriority returns the priority needed for a free transaction to be
// mined within target blocks.
//
// This function is safe for concurrent access.
func (mp *TxPool) EstimatePriority(target int) (float64, error) {
	return mp.estimator.EstimatePriority(target)
}
