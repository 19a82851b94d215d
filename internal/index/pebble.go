package index

import (
	"errors"
	"fmt"
	"log"

	"github.com/cockroachdb/pebble/v2"
)

// quietLogger silences pebble's info-level chatter, keeping only errors,
// matching indexers/pcx/db.QuietLogger.
type quietLogger struct{}

func (quietLogger) Infof(format string, args ...interface{}) {}
func (quietLogger) Errorf(format string, args ...interface{}) {
	log.Printf("[index pebble] "+format, args...)
}
func (quietLogger) Fatalf(format string, args ...interface{}) {
	log.Fatalf("[index pebble] "+format, args...)
}

// PebbleStore is a Store backed by a pebble database file, per the
// "nexus_state_v<N>.lmdb"-equivalent persistent state file described in
// spec.md §6 (substituting pebble for LMDB, per the design note in §9
// that the storage engine is incidental).
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebbleStore opens (creating if absent) the index database at dir.
func OpenPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{Logger: quietLogger{}})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIndexStoreError, dir, err)
	}
	return &PebbleStore{db: db}, nil
}

// NewPebbleStore wraps an already-open pebble database. The Nexus uses
// this to share one database file between the index namespace (keys
// prefixed 0x80) and the asset-generation journal (keys prefixed 0x01,
// see internal/nexus/state.go), matching spec.md §6's single
// "nexus_state_v<N>" database file with a named index sub-database.
func NewPebbleStore(db *pebble.DB) *PebbleStore {
	return &PebbleStore{db: db}
}

// DB returns the underlying pebble database, for callers that need to
// share it with another component.
func (s *PebbleStore) DB() *pebble.DB {
	return s.db
}

// ErrIndexStoreError wraps pebble open/transaction failures so callers
// can classify them as the IndexStoreError kind from spec.md §7.
var ErrIndexStoreError = errors.New("index store error")

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

func (s *PebbleStore) Get(indexName, entryName string) (Entry, error) {
	key, err := EncodeKey(indexName, entryName)
	if err != nil {
		return Entry{}, err
	}
	val, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: get: %v", ErrIndexStoreError, err)
	}
	defer closer.Close()
	return DecodeValue(val), nil
}

func (s *PebbleStore) BeginWrite() (Txn, error) {
	batch := s.db.NewIndexedBatch()
	return &pebbleTxn{db: s.db, batch: batch}, nil
}

type pebbleTxn struct {
	db    *pebble.DB
	batch *pebble.Batch
}

func (t *pebbleTxn) Get(indexName, entryName string) (Entry, error) {
	key, err := EncodeKey(indexName, entryName)
	if err != nil {
		return Entry{}, err
	}
	val, closer, err := t.batch.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: get: %v", ErrIndexStoreError, err)
	}
	defer closer.Close()
	return DecodeValue(val), nil
}

func (t *pebbleTxn) Put(indexName, entryName string, e Entry) error {
	key, err := EncodeKey(indexName, entryName)
	if err != nil {
		return err
	}
	val, err := EncodeValue(e)
	if err != nil {
		return err
	}
	if err := t.batch.Set(key, val, nil); err != nil {
		return fmt.Errorf("%w: put: %v", ErrIndexStoreError, err)
	}
	return nil
}

func (t *pebbleTxn) Commit() error {
	if err := t.batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrIndexStoreError, err)
	}
	return t.batch.Close()
}

func (t *pebbleTxn) Rollback() error {
	return t.batch.Close()
}
