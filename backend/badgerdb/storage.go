package badgerdb

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
)

func (bb *BadgerBackend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	db, err := bb.database()
	if err != nil {
		return nil, false, err
	}

	var value []byte
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})

	if isNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		bb.log.Error("Get failed: %v", err)
		return nil, false, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

func (bb *BadgerBackend) Set(ctx context.Context, key, value []byte) error {
	db, err := bb.database()
	if err != nil {
		return err
	}

	err = db.Update(func(txn *badger.Txn) error {
		return txn.Set(data.Clone(key), data.Clone(value))
	})
	if err != nil {
		bb.log.Error("Set failed: %v", err)
	}
	return err
}

func (bb *BadgerBackend) Remove(ctx context.Context, key []byte) error {
	db, err := bb.database()
	if err != nil {
		return err
	}

	err = db.Update(func(txn *badger.Txn) error {
		return txn.Delete(data.Clone(key))
	})
	if err != nil {
		bb.log.Error("Remove failed: %v", err)
	}
	return err
}

func (bb *BadgerBackend) Range(ctx context.Context, start, end []byte, order data.Order) (backend.Iterator, error) {
	db, err := bb.database()
	if err != nil {
		return nil, err
	}

	opts := badger.DefaultIteratorOptions
	opts.PrefetchSize = 10
	opts.Reverse = order == data.Descending

	txn := db.NewTransaction(false)
	return &badgerIterator{
		txn:   txn,
		iter:  txn.NewIterator(opts),
		order: order,
		start: start,
		end:   end,
	}, nil
}

type badgerIterator struct {
	txn   *badger.Txn
	iter  *badger.Iterator
	order data.Order
	start []byte
	end   []byte

	started bool
	done    bool
	closed  bool
	key     []byte
	value   []byte
	err     error
}

func (it *badgerIterator) Next() bool {
	// An exhausted badger iterator has no item to advance from
	if it.closed || it.done {
		return false
	}

	if !it.started {
		it.started = true
		it.seek()
	} else {
		it.iter.Next()
	}

	if !it.iter.Valid() {
		it.finish()
		return false
	}

	item := it.iter.Item()
	key := item.KeyCopy(nil)
	if !backend.InRange(key, it.start, it.end) {
		it.finish()
		return false
	}

	value, err := item.ValueCopy(nil)
	if err != nil {
		it.err = err
		it.finish()
		return false
	}

	it.key, it.value = key, value
	return true
}

// seek positions the cursor on the first entry in scan order. Reverse
// seeks land on the largest key <= target, so an exact hit on the exclusive
// end is skipped.
func (it *badgerIterator) seek() {
	if it.order != data.Descending {
		if it.start == nil {
			it.iter.Rewind()
		} else {
			it.iter.Seek(it.start)
		}
		return
	}

	if it.end == nil {
		it.iter.Rewind()
		return
	}

	it.iter.Seek(it.end)
	if it.iter.Valid() && bytes.Equal(it.iter.Item().Key(), it.end) {
		it.iter.Next()
	}
}

func (it *badgerIterator) finish() {
	it.done = true
	it.key = nil
	it.value = nil
}

func (it *badgerIterator) Key() []byte {
	return it.key
}

func (it *badgerIterator) Value() []byte {
	return it.value
}

func (it *badgerIterator) Err() error {
	return it.err
}

func (it *badgerIterator) Close() error {
	if it.closed {
		return nil
	}

	it.closed = true
	it.iter.Close()
	it.txn.Discard()
	return nil
}
