package nskv

import (
	"context"
	"sync"

	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
	"github.com/mwantia/nskv/lengthprefix"
	"github.com/mwantia/nskv/namespace"
)

// ReadonlyPrefixedStorage is a view of one namespace that can only read.
// It holds a shared lease, so several read-only views of the same store may
// coexist, but no mutable view can be created until all are released.
type ReadonlyPrefixedStorage struct {
	backend.Exclusive

	mu       sync.Mutex
	store    backend.ReadonlyStorage
	prefix   []byte
	release  func()
	released bool
}

var (
	_ backend.ReadonlyIterableStorage = (*ReadonlyPrefixedStorage)(nil)
	_ backend.Lender                  = (*ReadonlyPrefixedStorage)(nil)
)

func NewReadonly(store backend.ReadonlyStorage, ns []byte) (*ReadonlyPrefixedStorage, error) {
	return newReadonly(store, lengthprefix.Encode(ns))
}

// PrefixedReadonly is the same as NewReadonly.
func PrefixedReadonly(store backend.ReadonlyStorage, ns []byte) (*ReadonlyPrefixedStorage, error) {
	return NewReadonly(store, ns)
}

func MultilevelReadonly(store backend.ReadonlyStorage, namespaces ...[]byte) (*ReadonlyPrefixedStorage, error) {
	if len(namespaces) == 0 {
		return nil, data.ErrNoNamespace
	}
	return newReadonly(store, lengthprefix.EncodeNested(namespaces...))
}

func newReadonly(store backend.ReadonlyStorage, prefix []byte) (*ReadonlyPrefixedStorage, error) {
	release := func() {}
	if lender, ok := store.(backend.Lender); ok {
		r, err := lender.Share()
		if err != nil {
			return nil, err
		}
		release = r
	}

	return &ReadonlyPrefixedStorage{
		store:   store,
		prefix:  prefix,
		release: release,
	}, nil
}

// Prefix returns a copy of the physical key prefix of the view.
func (r *ReadonlyPrefixedStorage) Prefix() []byte {
	return data.Clone(r.prefix)
}

// Release hands the shared lease back. Calling it again is a no-op.
func (r *ReadonlyPrefixedStorage) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true
	r.release()
}

func (r *ReadonlyPrefixedStorage) access() error {
	r.mu.Lock()
	released := r.released
	r.mu.Unlock()

	if released {
		return data.ErrReleased
	}
	if r.Lent() {
		return data.ErrBorrowed
	}
	return nil
}

func (r *ReadonlyPrefixedStorage) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if err := r.access(); err != nil {
		return nil, false, err
	}
	return namespace.Get(ctx, r.store, r.prefix, key)
}

func (r *ReadonlyPrefixedStorage) Range(ctx context.Context, start, end []byte, order data.Order) (backend.Iterator, error) {
	if err := r.access(); err != nil {
		return nil, err
	}

	iterable, ok := r.store.(backend.Iterable)
	if !ok {
		return nil, data.ErrRangeUnsupported
	}
	return namespace.Range(ctx, iterable, r.prefix, start, end, order)
}
