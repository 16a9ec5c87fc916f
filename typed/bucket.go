package typed

import (
	"context"

	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
	"github.com/mwantia/nskv/lengthprefix"
	"github.com/mwantia/nskv/namespace"
)

// ReadonlyBucket reads values of type T stored below a namespace.
type ReadonlyBucket[T any] struct {
	reader backend.ReadonlyStorage
	prefix []byte
}

func NewReadonlyBucket[T any](store backend.ReadonlyStorage, ns []byte) *ReadonlyBucket[T] {
	return &ReadonlyBucket[T]{
		reader: store,
		prefix: lengthprefix.Encode(ns),
	}
}

// Load returns the value at key or an error wrapping data.ErrNotFound.
func (b *ReadonlyBucket[T]) Load(ctx context.Context, key []byte) (T, error) {
	value, found, err := b.MayLoad(ctx, key)
	if err == nil && !found {
		err = notFound(key)
	}
	return value, err
}

// MayLoad returns the value at key and whether it exists.
func (b *ReadonlyBucket[T]) MayLoad(ctx context.Context, key []byte) (T, bool, error) {
	var zero T

	raw, found, err := namespace.Get(ctx, b.reader, b.prefix, key)
	if err != nil || !found {
		return zero, false, err
	}

	value, err := decode[T](raw)
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// Range iterates the values with keys in [start, end).
func (b *ReadonlyBucket[T]) Range(ctx context.Context, start, end []byte, order data.Order) (*Iterator[T], error) {
	iterable, ok := b.reader.(backend.Iterable)
	if !ok {
		return nil, data.ErrRangeUnsupported
	}

	iter, err := namespace.Range(ctx, iterable, b.prefix, start, end, order)
	if err != nil {
		return nil, err
	}
	return &Iterator[T]{iter: iter}, nil
}

// Bucket reads and writes values of type T stored below a namespace.
type Bucket[T any] struct {
	ReadonlyBucket[T]
	store backend.Storage
}

func NewBucket[T any](store backend.Storage, ns []byte) *Bucket[T] {
	return &Bucket[T]{
		ReadonlyBucket: *NewReadonlyBucket[T](store, ns),
		store:          store,
	}
}

func (b *Bucket[T]) Save(ctx context.Context, key []byte, value T) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	return namespace.Set(ctx, b.store, b.prefix, key, raw)
}

func (b *Bucket[T]) Remove(ctx context.Context, key []byte) error {
	return namespace.Remove(ctx, b.store, b.prefix, key)
}

// Update loads the value at key, passes it to fn and saves the result. An
// error from fn aborts the update and is returned unchanged.
func (b *Bucket[T]) Update(ctx context.Context, key []byte, fn func(value T, found bool) (T, error)) (T, error) {
	current, found, err := b.MayLoad(ctx, key)
	if err != nil {
		return current, err
	}

	updated, err := fn(current, found)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := b.Save(ctx, key, updated); err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

// Iterator yields the decoded entries of a bucket range.
type Iterator[T any] struct {
	iter  backend.Iterator
	key   []byte
	value T
	err   error
}

func (it *Iterator[T]) Next() bool {
	if it.err != nil || !it.iter.Next() {
		var zero T
		it.key, it.value = nil, zero
		return false
	}

	value, err := decode[T](it.iter.Value())
	if err != nil {
		it.err = err
		return false
	}

	it.key = it.iter.Key()
	it.value = value
	return true
}

func (it *Iterator[T]) Key() []byte {
	return it.key
}

func (it *Iterator[T]) Value() T {
	return it.value
}

func (it *Iterator[T]) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.iter.Err()
}

func (it *Iterator[T]) Close() error {
	return it.iter.Close()
}
