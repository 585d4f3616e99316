// Package chunkstore persists hdf5index.Index values in a single bbolt
// database so a restarted server, or a second process sharing the same
// index directory, can reuse an already-built index instead of
// re-scanning the source HDF5 file.
package chunkstore

import (
	"bytes"
	"encoding/gob"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/met-norway/dars/internal/daperr"
	"github.com/met-norway/dars/internal/hdf5index"
)

var indexBucket = []byte("index")

// Store wraps a single bbolt database file holding one bucket keyed by
// canonical source path. A per-key mutex set prevents two goroutines
// from building the same new file's index twice; bbolt itself serializes
// the writes that follow through its single writer transaction.
type Store struct {
	db      *bolt.DB
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Open opens (creating if necessary) the bbolt database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, daperr.Wrap(daperr.IoError, "open chunkstore: "+path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(indexBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, daperr.Wrap(daperr.IoError, "init chunkstore bucket", err)
	}
	return &Store{db: db, locks: make(map[string]*sync.Mutex)}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get looks up a cached Index by canonical path. ok is false if no entry
// exists, or if the cached entry's schema version no longer matches
// hdf5index.SchemaVersion (treated as a cache miss, not an error).
func (s *Store) Get(path string) (idx *hdf5index.Index, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(indexBucket)
		v := b.Get([]byte(path))
		if v == nil {
			return nil
		}
		var decoded hdf5index.Index
		if derr := gob.NewDecoder(bytes.NewReader(v)).Decode(&decoded); derr != nil {
			return daperr.Wrap(daperr.CorruptIndex, "decode cached index: "+path, derr)
		}
		if decoded.SchemaVersion != hdf5index.SchemaVersion {
			return nil
		}
		idx = &decoded
		ok = true
		return nil
	})
	return idx, ok, err
}

// Put stores idx under path, replacing any existing entry.
func (s *Store) Put(path string, idx *hdf5index.Index) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(idx); err != nil {
		return daperr.Wrap(daperr.InternalDecodeError, "encode index for cache: "+path, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(indexBucket)
		return b.Put([]byte(path), buf.Bytes())
	})
}

// Lock returns the per-path mutex guarding concurrent index builds for
// path, creating it on first use.
func (s *Store) Lock(path string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if m, ok := s.locks[path]; ok {
		return m
	}
	m := &sync.Mutex{}
	s.locks[path] = m
	return m
}
