package backend

import (
	"context"

	"github.com/mwantia/nskv/data"
)

// ReadonlyStorage is the read half of a flat key-value store.
type ReadonlyStorage interface {
	// Get returns the value stored at key. A missing key is reported with
	// found == false and a nil error.
	Get(ctx context.Context, key []byte) (value []byte, found bool, err error)
}

// Storage is a flat, unordered key-value store.
type Storage interface {
	ReadonlyStorage

	// Set writes value at key, silently overwriting an existing value.
	Set(ctx context.Context, key, value []byte) error

	// Remove deletes key. Removing a missing key is a no-op.
	Remove(ctx context.Context, key []byte) error
}

// Iterable is the optional range capability of a store.
type Iterable interface {
	// Range iterates keys in [start, end) in byte-wise lexicographic order.
	// A nil bound is unbounded on that side. Descending order yields the
	// same keys as ascending order, reversed.
	Range(ctx context.Context, start, end []byte, order data.Order) (Iterator, error)
}

// ReadonlyIterableStorage can be read and scanned but not mutated.
type ReadonlyIterableStorage interface {
	ReadonlyStorage
	Iterable
}

// IterableStorage supports point operations and range scans.
type IterableStorage interface {
	Storage
	Iterable
}

// Iterator is a lazy, single-pass cursor over a range.
//
// It starts positioned before the first entry; call Next to advance. Close
// must be called when the iterator is dropped early and is safe to call
// more than once.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Err() error
	Close() error
}
