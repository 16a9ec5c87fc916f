package metrics

import (
	"context"
	"time"

	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
)

// InstrumentedStorage forwards every call to the wrapped store and records
// it. Range is only forwarded when the wrapped store is iterable.
type InstrumentedStorage struct {
	store   backend.Storage
	metrics *Metrics
	name    string
	// own is used when the wrapped store lends nothing itself
	own backend.Exclusive
}

var (
	_ backend.IterableStorage = (*InstrumentedStorage)(nil)
	_ backend.Borrower        = (*InstrumentedStorage)(nil)
)

// Instrument wraps store, labelling its samples with name.
//
// Leases are forwarded to store. When store is a backend.Borrower, such as
// a prefixed view, a view nested over the wrapper borrows store and works
// through an instrumented handle, so its calls are still recorded.
func Instrument(store backend.Storage, metrics *Metrics, name string) *InstrumentedStorage {
	return &InstrumentedStorage{
		store:   store,
		metrics: metrics,
		name:    name,
	}
}

func (s *InstrumentedStorage) observe(operation string, began time.Time, err error) {
	s.metrics.Operations.WithLabelValues(s.name, operation).Inc()
	s.metrics.Duration.WithLabelValues(s.name, operation).Observe(time.Since(began).Seconds())
	if err != nil {
		s.metrics.Errors.WithLabelValues(s.name, operation).Inc()
	}
}

func (s *InstrumentedStorage) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	began := time.Now()
	value, found, err := s.store.Get(ctx, key)
	s.observe(OperationGet, began, err)
	return value, found, err
}

func (s *InstrumentedStorage) Set(ctx context.Context, key, value []byte) error {
	began := time.Now()
	err := s.store.Set(ctx, key, value)
	s.observe(OperationSet, began, err)
	return err
}

func (s *InstrumentedStorage) Remove(ctx context.Context, key []byte) error {
	began := time.Now()
	err := s.store.Remove(ctx, key)
	s.observe(OperationRemove, began, err)
	return err
}

func (s *InstrumentedStorage) Range(ctx context.Context, start, end []byte, order data.Order) (backend.Iterator, error) {
	iterable, ok := s.store.(backend.Iterable)
	if !ok {
		s.observe(OperationRange, time.Now(), data.ErrRangeUnsupported)
		return nil, data.ErrRangeUnsupported
	}

	began := time.Now()
	iter, err := iterable.Range(ctx, start, end, order)
	if err != nil {
		s.observe(OperationRange, began, err)
		return nil, err
	}

	return &instrumentedIterator{Iterator: iter, storage: s, began: began}, nil
}

func (s *InstrumentedStorage) lender() backend.Lender {
	if lender, ok := s.store.(backend.Lender); ok {
		return lender
	}
	return &s.own
}

func (s *InstrumentedStorage) Lend() (func(), error) {
	return s.lender().Lend()
}

// Borrow takes the exclusive lease for a nested view. Stores that keep
// serving calls while lent are handed out as they are.
func (s *InstrumentedStorage) Borrow() (backend.Storage, func(), error) {
	if borrower, ok := s.store.(backend.Borrower); ok {
		handle, release, err := borrower.Borrow()
		if err != nil {
			return nil, nil, err
		}
		return Instrument(handle, s.metrics, s.name), release, nil
	}

	release, err := s.Lend()
	if err != nil {
		return nil, nil, err
	}
	return s, release, nil
}

func (s *InstrumentedStorage) Share() (func(), error) {
	return s.lender().Share()
}

func (s *InstrumentedStorage) Lent() bool {
	return s.lender().Lent()
}

func (s *InstrumentedStorage) Shared() bool {
	return s.lender().Shared()
}

// instrumentedIterator records the range once it is closed, so the
// duration covers the whole scan.
type instrumentedIterator struct {
	backend.Iterator
	storage  *InstrumentedStorage
	began    time.Time
	recorded bool
}

func (it *instrumentedIterator) Close() error {
	err := it.Iterator.Close()
	if !it.recorded {
		it.recorded = true

		failure := it.Iterator.Err()
		if failure == nil {
			failure = err
		}
		it.storage.observe(OperationRange, it.began, failure)
	}
	return err
}
