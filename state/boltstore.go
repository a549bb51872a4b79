package state

import (
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

// BoltStore is the persistent Store implementation backed by bbolt. Every
// Update maps to one bbolt write transaction, which gives the whole-call
// atomicity the settlement paths rely on.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath and ensures
// all shared buckets exist. The parent directory is created if needed.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("state: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("state: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("state: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Update runs fn in a writable bbolt transaction.
func (s *BoltStore) Update(fn func(tx Tx) error) error {
	return s.db.Update(func(btx *bbolt.Tx) error {
		return fn(boltTx{btx})
	})
}

// View runs fn in a read-only bbolt transaction.
func (s *BoltStore) View(fn func(tx Tx) error) error {
	return s.db.View(func(btx *bbolt.Tx) error {
		return fn(boltTx{btx})
	})
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

type boltTx struct {
	tx *bbolt.Tx
}

func (t boltTx) Bucket(name []byte) Bucket {
	b := t.tx.Bucket(name)
	if b == nil {
		return nil
	}
	return boltBucket{b}
}

type boltBucket struct {
	b *bbolt.Bucket
}

func (b boltBucket) Get(key []byte) []byte { return b.b.Get(key) }

func (b boltBucket) Put(key, value []byte) error { return b.b.Put(key, value) }

func (b boltBucket) Delete(key []byte) error { return b.b.Delete(key) }

func (b boltBucket) ForEach(fn func(k, v []byte) error) error {
	return b.b.ForEach(fn)
}
