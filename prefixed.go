package nskv

import (
	"context"
	"sync"

	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
	"github.com/mwantia/nskv/lengthprefix"
	"github.com/mwantia/nskv/namespace"
)

// PrefixedStorage is a mutable view of one namespace of an underlying store.
//
// The view holds the exclusive lease of the store (when the store is a
// backend.Lender) until Release is called. It is itself a Lender: a view
// nested inside it borrows it the same way.
type PrefixedStorage struct {
	backend.Exclusive

	mu       sync.Mutex
	store    backend.Storage
	prefix   []byte
	release  func()
	released bool
}

var (
	_ backend.IterableStorage = (*PrefixedStorage)(nil)
	_ backend.Borrower        = (*PrefixedStorage)(nil)
)

// New creates a view of store below a single namespace.
//
// It panics with data.ErrNamespaceTooLong if namespace exceeds 65535 bytes,
// and fails with data.ErrBorrowed if store is already lent.
func New(store backend.Storage, ns []byte) (*PrefixedStorage, error) {
	return newPrefixed(store, lengthprefix.Encode(ns))
}

// Prefixed is the same as New.
func Prefixed(store backend.Storage, ns []byte) (*PrefixedStorage, error) {
	return New(store, ns)
}

// Multilevel creates a view below a list of nested namespaces in one step.
// It reads and writes exactly the keys that the same namespaces reach when
// views are nested one inside another.
func Multilevel(store backend.Storage, namespaces ...[]byte) (*PrefixedStorage, error) {
	if len(namespaces) == 0 {
		return nil, data.ErrNoNamespace
	}
	return newPrefixed(store, lengthprefix.EncodeNested(namespaces...))
}

func newPrefixed(store backend.Storage, prefix []byte) (*PrefixedStorage, error) {
	release := func() {}

	// A parent view lent to us is reached past its own lease
	if borrower, ok := store.(backend.Borrower); ok {
		handle, r, err := borrower.Borrow()
		if err != nil {
			return nil, err
		}
		release = r
		store = handle
	} else if lender, ok := store.(backend.Lender); ok {
		r, err := lender.Lend()
		if err != nil {
			return nil, err
		}
		release = r
	}

	return &PrefixedStorage{
		store:   store,
		prefix:  prefix,
		release: release,
	}, nil
}

// Prefix returns a copy of the physical key prefix of the view.
func (p *PrefixedStorage) Prefix() []byte {
	return data.Clone(p.prefix)
}

// Release hands the lease back to the wrapped store. Every later call on
// the view fails with data.ErrReleased. Calling it again is a no-op.
func (p *PrefixedStorage) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.released {
		return
	}
	p.released = true
	p.release()
}

// Borrow takes the exclusive lease of the view and returns the handle a
// nested view reads and writes through. The view itself refuses every call
// until release is called.
func (p *PrefixedStorage) Borrow() (backend.Storage, func(), error) {
	release, err := p.Lend()
	if err != nil {
		return nil, nil, err
	}
	return &lentView{view: p}, release, nil
}

func (p *PrefixedStorage) isReleased() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.released
}

// access checks that the view may be used directly. Mutations are also
// refused while read-only views are nested inside.
func (p *PrefixedStorage) access(mutating bool) error {
	if p.isReleased() {
		return data.ErrReleased
	}
	if p.Lent() || (mutating && p.Shared()) {
		return data.ErrBorrowed
	}
	return nil
}

func (p *PrefixedStorage) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if err := p.access(false); err != nil {
		return nil, false, err
	}
	return namespace.Get(ctx, p.store, p.prefix, key)
}

func (p *PrefixedStorage) Set(ctx context.Context, key, value []byte) error {
	if err := p.access(true); err != nil {
		return err
	}
	return namespace.Set(ctx, p.store, p.prefix, key, value)
}

func (p *PrefixedStorage) Remove(ctx context.Context, key []byte) error {
	if err := p.access(true); err != nil {
		return err
	}
	return namespace.Remove(ctx, p.store, p.prefix, key)
}

// Range scans the logical keys in [start, end) of the view. It fails with
// data.ErrRangeUnsupported when the wrapped store cannot iterate.
func (p *PrefixedStorage) Range(ctx context.Context, start, end []byte, order data.Order) (backend.Iterator, error) {
	if err := p.access(false); err != nil {
		return nil, err
	}
	return p.rangeOf(ctx, start, end, order)
}

func (p *PrefixedStorage) rangeOf(ctx context.Context, start, end []byte, order data.Order) (backend.Iterator, error) {
	iterable, ok := p.store.(backend.Iterable)
	if !ok {
		return nil, data.ErrRangeUnsupported
	}
	return namespace.Range(ctx, iterable, p.prefix, start, end, order)
}

// lentView is how a nested view reaches the parent it borrowed. The parent
// refuses direct calls while lent; this path only checks for release.
type lentView struct {
	view *PrefixedStorage
}

func (l *lentView) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if l.view.isReleased() {
		return nil, false, data.ErrReleased
	}
	return namespace.Get(ctx, l.view.store, l.view.prefix, key)
}

func (l *lentView) Set(ctx context.Context, key, value []byte) error {
	if l.view.isReleased() {
		return data.ErrReleased
	}
	return namespace.Set(ctx, l.view.store, l.view.prefix, key, value)
}

func (l *lentView) Remove(ctx context.Context, key []byte) error {
	if l.view.isReleased() {
		return data.ErrReleased
	}
	return namespace.Remove(ctx, l.view.store, l.view.prefix, key)
}

func (l *lentView) Range(ctx context.Context, start, end []byte, order data.Order) (backend.Iterator, error) {
	if l.view.isReleased() {
		return nil, data.ErrReleased
	}
	return l.view.rangeOf(ctx, start, end, order)
}
