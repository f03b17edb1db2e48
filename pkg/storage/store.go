package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrStorage wraps any failure reported by the underlying byte store, so
// callers can classify an error without string matching, per the storage
// engine's error taxonomy.
var ErrStorage = errors.New("storage: operation failed")

// rootBucket is the single named byte-store bucket vaultkv opens inside the
// bbolt environment; all logical keys live as entries (or nested dup
// buckets) inside it.
var rootBucket = []byte("vaultkv")

// Env is the embedded, transactional, ordered byte-store environment:
// vaultkv's Byte-Store Abstraction. One Env exists per data directory; see
// pkg/facade for the single-instance-per-directory contract.
type Env struct {
	db   *bolt.DB
	path string
}

// Open opens (creating if absent) the bbolt environment at dataDir/vaultkv.db
// and ensures the root bucket exists. dataDir must already exist; Open does
// not create it, matching the construction-fails-if-directory-missing rule.
func Open(dataDir string) (*Env, error) {
	dbPath := filepath.Join(dataDir, "vaultkv.db")

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorage, dbPath, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create root bucket: %v", ErrStorage, err)
	}

	return &Env{db: db, path: dataDir}, nil
}

// Path returns the data directory this Env was opened against.
func (e *Env) Path() string { return e.path }

// Sync verifies the environment handle is still usable, by probing the
// root bucket in a read transaction. It backs the facade's single-instance
// "sync the existing facade" check.
func (e *Env) Sync() error {
	return e.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(rootBucket) == nil {
			return fmt.Errorf("%w: root bucket missing", ErrStorage)
		}
		return nil
	})
}

// Close releases the environment. Safe to call once; callers must not use
// the Env afterward.
func (e *Env) Close() error {
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrStorage, err)
	}
	return nil
}

// BeginTxn opens a read-write or read-only transaction, matching the
// spec's begin_txn/commit/abort contract. Callers must call Commit or
// Rollback on every path, including error returns — bbolt requires it to
// release the transaction's lock.
func (e *Env) BeginTxn(writable bool) (*bolt.Tx, error) {
	tx, err := e.db.Begin(writable)
	if err != nil {
		return nil, fmt.Errorf("%w: begin txn: %v", ErrStorage, err)
	}
	return tx, nil
}

// root fetches the root bucket from an open transaction. It never returns
// nil for a transaction opened against an Env created by Open.
func root(tx *bolt.Tx) *bolt.Bucket {
	return tx.Bucket(rootBucket)
}

// Get fetches the value stored at a plain (non-duplicate) key. The
// returned slice is a copy, valid beyond the transaction's lifetime, since
// bbolt's own buffers are only valid until commit.
func Get(tx *bolt.Tx, key []byte) ([]byte, bool, error) {
	v := root(tx).Get(key)
	if v == nil {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// Put writes value at a plain key, overwriting any existing row.
func Put(tx *bolt.Tx, key, value []byte) error {
	if err := root(tx).Put(key, value); err != nil {
		return fmt.Errorf("%w: put: %v", ErrStorage, err)
	}
	return nil
}

// Delete removes a plain key's row. It is not an error if the key is
// already absent.
func Delete(tx *bolt.Tx, key []byte) error {
	if err := root(tx).Delete(key); err != nil {
		return fmt.Errorf("%w: delete: %v", ErrStorage, err)
	}
	return nil
}

// dupBucket returns the nested bucket backing a duplicate-key entry,
// creating it if it does not exist and create is true.
func dupBucket(tx *bolt.Tx, key []byte, create bool) (*bolt.Bucket, error) {
	r := root(tx)
	if b := r.Bucket(key); b != nil {
		return b, nil
	}
	if !create {
		return nil, nil
	}
	b, err := r.CreateBucket(key)
	if err != nil {
		return nil, fmt.Errorf("%w: create dup bucket: %v", ErrStorage, err)
	}
	return b, nil
}

// PutDup adds value to key's duplicate set. Re-inserting an already
// present duplicate is a no-op success.
func PutDup(tx *bolt.Tx, key, value []byte) error {
	b, err := dupBucket(tx, key, true)
	if err != nil {
		return err
	}
	if err := b.Put(value, []byte{}); err != nil {
		return fmt.Errorf("%w: put dup: %v", ErrStorage, err)
	}
	return nil
}

// HasDup probes whether value is present in key's duplicate set
// (an exact-match lookup, as opposed to a cursor range scan).
func HasDup(tx *bolt.Tx, key, value []byte) (bool, error) {
	b, err := dupBucket(tx, key, false)
	if err != nil {
		return false, err
	}
	if b == nil {
		return false, nil
	}
	return b.Get(value) != nil, nil
}

// DeleteDup removes a single duplicate value from key's set via a cursor
// search_both, returning whether it was present. If the set becomes empty
// the nested bucket itself is removed, so an absent index/revision set
// does not leave a stray empty bucket behind.
func DeleteDup(tx *bolt.Tx, key, value []byte) (bool, error) {
	b, err := dupBucket(tx, key, false)
	if err != nil {
		return false, err
	}
	if b == nil {
		return false, nil
	}

	c := b.Cursor()
	k, _ := c.Seek(value)
	if k == nil || string(k) != string(value) {
		return false, nil
	}
	if err := c.Delete(); err != nil {
		return false, fmt.Errorf("%w: delete dup: %v", ErrStorage, err)
	}

	if k, _ := b.Cursor().First(); k == nil {
		if err := root(tx).DeleteBucket(key); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return false, fmt.Errorf("%w: delete empty dup bucket: %v", ErrStorage, err)
		}
	}
	return true, nil
}

// DeleteDupSet removes key and every one of its duplicate values in one
// step, returning the number of duplicates removed.
func DeleteDupSet(tx *bolt.Tx, key []byte) (int, error) {
	b, err := dupBucket(tx, key, false)
	if err != nil {
		return 0, err
	}
	if b == nil {
		return 0, nil
	}
	n := b.Stats().KeyN
	if err := root(tx).DeleteBucket(key); err != nil {
		return 0, fmt.Errorf("%w: delete dup set: %v", ErrStorage, err)
	}
	return n, nil
}

// HasDupSet reports whether key has any duplicate-set bucket at all
// (regardless of contents).
func HasDupSet(tx *bolt.Tx, key []byte) (bool, error) {
	b, err := dupBucket(tx, key, false)
	if err != nil {
		return false, err
	}
	return b != nil, nil
}

// IterateDup walks every duplicate value of key in the store's native
// ascending byte order, calling fn for each. Iteration stops early if fn
// returns an error, which IterateDup then returns. A missing key set
// yields zero calls, not an error.
func IterateDup(tx *bolt.Tx, key []byte, fn func(value []byte) error) error {
	b, err := dupBucket(tx, key, false)
	if err != nil {
		return err
	}
	if b == nil {
		return nil
	}

	c := b.Cursor()
	for v, _ := c.First(); v != nil; v, _ = c.Next() {
		dup := make([]byte, len(v))
		copy(dup, v)
		if err := fn(dup); err != nil {
			return err
		}
	}
	return nil
}
