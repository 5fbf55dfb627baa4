// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fees

import (
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcutil"
)

const (
	// MaxMoney is the largest amount that is considered a valid monetary
	// value.
	MaxMoney btcutil.Amount = math.MaxInt64

	// feeFloor is the fee charged at a positive rate whenever the exact fee
	// truncates to zero, including for a zero size.
	feeFloor btcutil.Amount = 1
)

// MoneyRange returns whether the amount is a valid monetary value.
func MoneyRange(amount btcutil.Amount) bool {
	return amount >= 0 && amount <= MaxMoney
}

// FeeRate is a fee expressed in satoshi per 1000 bytes of serialized
// transaction size.  Fee rates are totally ordered by their integer value.
type FeeRate int64

// NewFeeRate returns the fee rate for the given fee per kilobyte.
func NewFeeRate(perKB btcutil.Amount) FeeRate {
	return FeeRate(perKB)
}

// NewFeeRateFromFee returns the rate paid by a transaction of the given size
// paying fee.  A size of zero yields a zero rate.
func NewFeeRateFromFee(fee btcutil.Amount, size int64) FeeRate {
	if size <= 0 {
		return 0
	}
	return FeeRate(int64(fee) * 1000 / size)
}

// GetFee returns the fee for a transaction of the given size at this rate.
// The result is truncated toward zero, except that a positive rate never
// yields a zero fee.
func (r FeeRate) GetFee(size int64) btcutil.Amount {
	fee := btcutil.Amount(int64(r) * size / 1000)
	if fee == 0 && r > 0 {
		fee = feeFloor
	}
	return fee
}

// FeePerK returns the fee for 1000 bytes.
func (r FeeRate) FeePerK() btcutil.Amount {
	return btcutil.Amount(r)
}

// Cmp returns -1, 0 or 1 when r is lower than, equal to or higher than o.
func (r FeeRate) Cmp(o FeeRate) int {
	switch {
	case r < o:
		return -1
	case r > o:
		return 1
	}
	return 0
}

// String returns the rate in whole coins per kilobyte with eight decimals.
func (r FeeRate) String() string {
	n := int64(r)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%08d DSLK/kB", sign, n/btcutil.SatoshiPerBitcoin,
		n%btcutil.SatoshiPerBitcoin)
}
