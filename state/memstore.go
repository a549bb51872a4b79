package state

import "sync"

// MemStore is an in-memory Store implementation for tests. Update runs
// against a copy of the data and swaps it in only when the closure succeeds,
// so a failed call leaves no observable state change, matching BoltStore.
type MemStore struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store with all shared buckets.
func NewMemStore() *MemStore {
	data := make(map[string]map[string][]byte, len(buckets))
	for _, name := range buckets {
		data[string(name)] = make(map[string][]byte)
	}
	return &MemStore{data: data}
}

// Update runs fn against a deep copy of the store, committing the copy only
// if fn returns nil.
func (s *MemStore) Update(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := make(map[string]map[string][]byte, len(s.data))
	for name, bucket := range s.data {
		cb := make(map[string][]byte, len(bucket))
		for k, v := range bucket {
			cv := make([]byte, len(v))
			copy(cv, v)
			cb[k] = cv
		}
		clone[name] = cb
	}

	if err := fn(&memTx{data: clone, writable: true}); err != nil {
		return err
	}
	s.data = clone
	return nil
}

// View runs fn against the live data in a read-only transaction.
func (s *MemStore) View(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memTx{data: s.data})
}

// Close is a no-op for the in-memory store.
func (s *MemStore) Close() error { return nil }

type memTx struct {
	data     map[string]map[string][]byte
	writable bool
}

func (t *memTx) Bucket(name []byte) Bucket {
	b, ok := t.data[string(name)]
	if !ok {
		return nil
	}
	return &memBucket{data: b, writable: t.writable}
}

type memBucket struct {
	data     map[string][]byte
	writable bool
}

func (b *memBucket) Get(key []byte) []byte {
	return b.data[string(key)]
}

func (b *memBucket) Put(key, value []byte) error {
	if !b.writable {
		return ErrTxReadOnly
	}
	v := make([]byte, len(value))
	copy(v, value)
	b.data[string(key)] = v
	return nil
}

func (b *memBucket) Delete(key []byte) error {
	if !b.writable {
		return ErrTxReadOnly
	}
	delete(b.data, string(key))
	return nil
}

func (b *memBucket) ForEach(fn func(k, v []byte) error) error {
	for k, v := range b.data {
		if err := fn([]byte(k), v); err != nil {
			return err
		}
	}
	return nil
}
