package backend

import (
	"sync"

	"github.com/mwantia/nskv/data"
)

// Lender hands out access leases on a store handle. At most one exclusive
// lease, or any number of shared leases, may be held at the same time.
// Conflicting requests fail with data.ErrBorrowed instead of blocking.
//
// Leases arbitrate between views only. A raw backend keeps serving its own
// Get, Set, Remove and Range calls while a view holds its exclusive lease,
// and so does anything else built directly on the raw handle, such as a
// typed bucket.
type Lender interface {
	// Lend acquires the exclusive lease.
	Lend() (release func(), err error)
	// Share acquires a shared lease.
	Share() (release func(), err error)
	// Lent reports whether the exclusive lease is held.
	Lent() bool
	// Shared reports whether at least one shared lease is held.
	Shared() bool
}

// Borrower is a Lender that also hands out the handle a nested view works
// through. Prefixed views refuse direct calls while lent, so their handle
// reaches them past their own lease. Borrow takes the exclusive lease.
type Borrower interface {
	Lender
	Borrow() (handle Storage, release func(), err error)
}

// Exclusive implements Lender and is meant to be embedded by stores.
// The zero value is ready to use.
type Exclusive struct {
	mu     sync.Mutex
	lent   bool
	shared int
}

var _ Lender = (*Exclusive)(nil)

func (e *Exclusive) Lend() (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lent || e.shared > 0 {
		return nil, data.ErrBorrowed
	}
	e.lent = true

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			e.lent = false
			e.mu.Unlock()
		})
	}, nil
}

func (e *Exclusive) Share() (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lent {
		return nil, data.ErrBorrowed
	}
	e.shared++

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			e.shared--
			e.mu.Unlock()
		})
	}, nil
}

func (e *Exclusive) Lent() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.lent
}

func (e *Exclusive) Shared() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.shared > 0
}
