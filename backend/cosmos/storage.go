package cosmos

import (
	"context"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
)

func (cb *CosmosBackend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	db, err := cb.database()
	if err != nil {
		return nil, false, err
	}

	// cosmos-db never stores nil values, so nil means absent
	value, err := db.Get(key)
	if err != nil {
		return nil, false, err
	}
	if value == nil {
		return nil, false, nil
	}
	return data.Clone(value), true, nil
}

func (cb *CosmosBackend) Set(ctx context.Context, key, value []byte) error {
	db, err := cb.database()
	if err != nil {
		return err
	}

	if value == nil {
		value = []byte{}
	}
	if err := db.Set(data.Clone(key), data.Clone(value)); err != nil {
		cb.log.Error("Set failed: %v", err)
		return err
	}
	return nil
}

func (cb *CosmosBackend) Remove(ctx context.Context, key []byte) error {
	db, err := cb.database()
	if err != nil {
		return err
	}

	if err := db.Delete(key); err != nil {
		cb.log.Error("Remove failed: %v", err)
		return err
	}
	return nil
}

func (cb *CosmosBackend) Range(ctx context.Context, start, end []byte, order data.Order) (backend.Iterator, error) {
	db, err := cb.database()
	if err != nil {
		return nil, err
	}

	// cosmos-db rejects empty bounds; an empty start is the lowest key and
	// an empty end selects nothing
	if start != nil && len(start) == 0 {
		start = nil
	}
	if end != nil && len(end) == 0 {
		return backend.NewSliceIterator(nil, order), nil
	}

	var iter dbm.Iterator
	if order == data.Descending {
		iter, err = db.ReverseIterator(start, end)
	} else {
		iter, err = db.Iterator(start, end)
	}
	if err != nil {
		return nil, err
	}

	return &cosmosIterator{iter: iter}, nil
}

// cosmosIterator turns the Valid/Next cursor of cosmos-db, which starts on
// the first entry, into a Next-first cursor.
type cosmosIterator struct {
	iter    dbm.Iterator
	started bool
	closed  bool
}

func (it *cosmosIterator) Next() bool {
	if it.closed {
		return false
	}

	if it.started {
		if !it.iter.Valid() {
			return false
		}
		it.iter.Next()
	}
	it.started = true

	return it.iter.Valid()
}

func (it *cosmosIterator) Key() []byte {
	if it.closed || !it.iter.Valid() {
		return nil
	}
	return data.Clone(it.iter.Key())
}

func (it *cosmosIterator) Value() []byte {
	if it.closed || !it.iter.Valid() {
		return nil
	}
	return data.Clone(it.iter.Value())
}

func (it *cosmosIterator) Err() error {
	if it.closed {
		return nil
	}
	return it.iter.Error()
}

func (it *cosmosIterator) Close() error {
	if it.closed {
		return nil
	}

	it.closed = true
	return it.iter.Close()
}
