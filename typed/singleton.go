package typed

import (
	"context"

	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/lengthprefix"
)

// ReadonlySingleton reads the single value of type T kept at one key.
type ReadonlySingleton[T any] struct {
	reader backend.ReadonlyStorage
	key    []byte
}

// NewReadonlySingleton reads the value stored at the length-prefixed form
// of key.
func NewReadonlySingleton[T any](store backend.ReadonlyStorage, key []byte) *ReadonlySingleton[T] {
	return &ReadonlySingleton[T]{
		reader: store,
		key:    lengthprefix.Encode(key),
	}
}

func (s *ReadonlySingleton[T]) Load(ctx context.Context) (T, error) {
	value, found, err := s.MayLoad(ctx)
	if err == nil && !found {
		err = notFound(s.key)
	}
	return value, err
}

func (s *ReadonlySingleton[T]) MayLoad(ctx context.Context) (T, bool, error) {
	var zero T

	raw, found, err := s.reader.Get(ctx, s.key)
	if err != nil || !found {
		return zero, false, err
	}

	value, err := decode[T](raw)
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// Singleton reads and writes the single value of type T kept at one key.
type Singleton[T any] struct {
	ReadonlySingleton[T]
	store backend.Storage
}

func NewSingleton[T any](store backend.Storage, key []byte) *Singleton[T] {
	return &Singleton[T]{
		ReadonlySingleton: *NewReadonlySingleton[T](store, key),
		store:             store,
	}
}

func (s *Singleton[T]) Save(ctx context.Context, value T) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, s.key, raw)
}

func (s *Singleton[T]) Remove(ctx context.Context) error {
	return s.store.Remove(ctx, s.key)
}

// Update loads the value, passes it to fn and saves the result.
func (s *Singleton[T]) Update(ctx context.Context, fn func(value T, found bool) (T, error)) (T, error) {
	current, found, err := s.MayLoad(ctx)
	if err != nil {
		return current, err
	}

	updated, err := fn(current, found)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := s.Save(ctx, updated); err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}
