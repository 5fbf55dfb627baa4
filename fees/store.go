// Copyright (c) 2015-2016 The Silk Network developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fees

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
)

const (
	// EstimatesFileName is the name of the file a FileStore keeps the fee
	// estimate stream in.
	EstimatesFileName = "fee_estimates.dat"

	// EstimatesDBName is the name of the directory a LevelDBStore keeps
	// its database in.
	EstimatesDBName = "feesdb"
)

var (
	// ErrNoEstimates is returned by Get when the store holds no stream.
	ErrNoEstimates = errors.New("no fee estimates stored")

	// dbKeyEstimates is the key the stream is stored under.
	dbKeyEstimates = []byte("feeestimates")
)

// Store persists a single serialized fee estimate stream.
type Store interface {
	// Put replaces the stored stream.
	Put(data []byte) error

	// Get returns the stored stream or ErrNoEstimates.
	Get() ([]byte, error)

	// Close releases the resources held by the store.
	Close() error
}

// FileStore keeps the stream in a file inside a data directory.  Writes go
// to a temporary file that is renamed over the old one so a crash never
// leaves a partial stream behind.
type FileStore struct {
	path string
}

// Ensure FileStore implements the Store interface.
var _ Store = (*FileStore)(nil)

// NewFileStore returns a store for the estimates file in dataDir.  The
// directory is created if needed.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, err
	}
	return &FileStore{path: filepath.Join(dataDir, EstimatesFileName)}, nil
}

// Path returns the location of the estimates file.
func (s *FileStore) Path() string {
	return s.path
}

// Put atomically replaces the estimates file with data.
func (s *FileStore) Put(data []byte) error {
	dir, name := filepath.Split(s.path)
	f, err := os.CreateTemp(dir, name+".*.new")
	if err != nil {
		return err
	}
	tmpName := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpName)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpName)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	log.Debugf("Wrote %d bytes of fee estimates to %s", len(data), s.path)
	return nil
}

// Get reads the estimates file.
func (s *FileStore) Get() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoEstimates
	}
	return data, err
}

// Close is a no-op for file stores.
func (s *FileStore) Close() error {
	return nil
}

// LevelDBStore keeps the stream under a single key of a leveldb database.
type LevelDBStore struct {
	db *leveldb.DB
}

// Ensure LevelDBStore implements the Store interface.
var _ Store = (*LevelDBStore)(nil)

// OpenLevelDBStore opens or creates the database at path.
func OpenLevelDBStore(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("error opening estimator database: %w", err)
	}
	return &LevelDBStore{db: db}, nil
}

// Put replaces the stored stream.
func (s *LevelDBStore) Put(data []byte) error {
	if err := s.db.Put(dbKeyEstimates, data, nil); err != nil {
		return fmt.Errorf("error writing fee estimates to db: %w", err)
	}
	return nil
}

// Get returns the stored stream.
func (s *LevelDBStore) Get() ([]byte, error) {
	data, err := s.db.Get(dbKeyEstimates, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNoEstimates
	}
	if err != nil {
		return nil, fmt.Errorf("error reading fee estimates from db: %w",
			err)
	}
	return data, nil
}

// Close closes the database.
func (s *LevelDBStore) Close() error {
	return s.db.Close()
}
