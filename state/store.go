// Package state provides the transactional key/value store that backs the
// registries, the ledger and the marketplace. A single store instance is
// shared by all of them so one settlement (payment split, ownership change,
// refund) commits or aborts as a unit: an error returned from an Update
// closure discards every write made inside it.
package state

// Bucket names shared by the packages built on a Store.
var (
	BucketBalances   = []byte("balances")
	BucketRegistries = []byte("registries")
	BucketTokens     = []byte("tokens")
	BucketWhitelist  = []byte("whitelist")
)

// buckets lists every bucket a store must provide.
var buckets = [][]byte{BucketBalances, BucketRegistries, BucketTokens, BucketWhitelist}

// Bucket is a namespace of key/value pairs inside a transaction.
type Bucket interface {
	// Get returns the value for a key, or nil if absent. The returned slice
	// is only valid for the duration of the transaction.
	Get(key []byte) []byte

	// Put stores a value under a key.
	Put(key, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// ForEach calls fn for every key/value pair in the bucket.
	ForEach(fn func(k, v []byte) error) error
}

// Tx is a single transaction against the store.
type Tx interface {
	// Bucket returns the named bucket. Buckets are created when the store
	// is opened; asking for an unknown name returns nil.
	Bucket(name []byte) Bucket
}

// Store is a transactional store with all-or-nothing writes.
type Store interface {
	// Update runs fn in a writable transaction. If fn returns an error,
	// every write made inside it is discarded and the error is returned.
	// Update calls are serialized: one transaction fully commits or aborts
	// before the next begins.
	Update(fn func(tx Tx) error) error

	// View runs fn in a read-only transaction.
	View(fn func(tx Tx) error) error

	// Close releases the store.
	Close() error
}
