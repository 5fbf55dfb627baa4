// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/quantumgravity444/DarkSilk-Release-Candidate/blockchain"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/fees"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/mempool"
	"github.com/quantumgravity444/DarkSilk-Release-Candidate/mining"
)

const (
	rollSizeKB = 10 * 1024
	maxRolls   = 3
)

// logWriter copies every log line to standard output and, when one has been
// set up, to the rotating log file.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if LogRotator != nil {
		LogRotator.Write(p)
	}
	return len(p), nil
}

// Every subsystem logger shares backendLog.  A new subsystem needs a logger
// here and an entry in SubsystemLoggers.
//
// Output only reaches a log file once InitLogRotator has been called.  Until
// then loggers write to standard output alone.
var (
	// backendLog tags and formats the lines of every subsystem.
	backendLog = btclog.NewBackend(logWriter{})

	// LogRotator is the rotating log file, nil until InitLogRotator runs.
	// The owner closes it on exit.
	LogRotator *rotator.Rotator

	chanLog = backendLog.Logger("CHAN")
	DsdtLog = backendLog.Logger("DSDT")
	feesLog = backendLog.Logger("FEES")
	minrLog = backendLog.Logger("MINR")
	TxmpLog = backendLog.Logger("TXMP")
)

// Hand each package its subsystem logger.
func init() {
	blockchain.UseLogger(chanLog)
	fees.UseLogger(feesLog)
	mining.UseLogger(minrLog)
	mempool.UseLogger(TxmpLog)
}

// SubsystemLoggers is keyed by the tag each subsystem prints.
var SubsystemLoggers = map[string]btclog.Logger{
	"CHAN": chanLog,
	"DSDT": DsdtLog,
	"FEES": feesLog,
	"MINR": minrLog,
	"TXMP": TxmpLog,
}

// InitLogRotator starts writing log output to logFile.  Once the file passes
// rollSizeKB it is rolled over, and up to maxRolls uncompressed old files are
// kept next to it.
func InitLogRotator(logFile string) error {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	r, err := rotator.New(logFile, rollSizeKB, false, maxRolls)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}

	LogRotator = r
	return nil
}

// SupportedSubsystems returns the subsystem tags in sorted order.
func SupportedSubsystems() []string {
	subsystems := make([]string, 0, len(SubsystemLoggers))
	for subsysID := range SubsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

// SetLogLevel changes the level of one subsystem.  Unknown tags are ignored
// and unparsable levels mean info.
func SetLogLevel(subsystemID string, logLevel string) {
	logger, ok := SubsystemLoggers[subsystemID]
	if !ok {
		return
	}

	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels applies one level to every subsystem.
func SetLogLevels(logLevel string) {
	for subsystemID := range SubsystemLoggers {
		SetLogLevel(subsystemID, logLevel)
	}
}

// ValidLogLevel reports whether logLevel names a btclog level.
func ValidLogLevel(logLevel string) bool {
	_, ok := btclog.LevelFromString(logLevel)
	return ok
}

// PickNoun returns singular when n is one and plural otherwise.
func PickNoun(n uint64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
