// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version provides a single location to house the version information
// for dsd and the utilities provided in the same repository.
package version

import (
	"fmt"
	"strings"
)

// These constants define the client version.  Numeric packs them into the
// 32-bit form that is written into persisted streams.
const (
	Major    = 1
	Minor    = 0
	Revision = 2
	Build    = 0
)

// PreRelease is defined as a variable so it can be overridden during the build
// process with:
//
//	go build -ldflags "-X github.com/quantumgravity444/DarkSilk-Release-Candidate/version.PreRelease=rc.1"
var PreRelease = ""

// Numeric returns the client version as a single number in the form
// MMmmrrbb (major, minor, revision, build).  Readers of persisted data compare
// the version required by the writer against this value.
func Numeric() int32 {
	return Major*1000000 + Minor*10000 + Revision*100 + Build
}

// String returns the client version as a human readable string.
func String() string {
	v := fmt.Sprintf("%d.%d.%d.%d", Major, Minor, Revision, Build)
	if pre := strings.TrimSpace(PreRelease); pre != "" {
		v += "-" + pre
	}
	return v
}

// FormatNumeric renders a numeric client version produced by Numeric (or read
// back from disk) as a dotted string.
func FormatNumeric(n int32) string {
	return fmt.Sprintf("%d.%d.%d.%d", n/1000000, (n/10000)%100,
		(n/100)%100, n%100)
}
