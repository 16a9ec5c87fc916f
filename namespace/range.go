package namespace

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
)

// Range scans the logical range [start, end) below prefix in the given
// order. Keys handed to the caller have the prefix stripped.
//
// A physical key without the prefix means two namespaces overlap somewhere
// in the store; the iterator panics with data.ErrCorruptKey in that case.
func Range(ctx context.Context, store backend.Iterable, prefix, start, end []byte, order data.Order) (backend.Iterator, error) {
	pstart, pend := RangeBounds(prefix, start, end)

	inner, err := store.Range(ctx, pstart, pend, order)
	if err != nil {
		return nil, err
	}

	return &prefixIterator{
		inner:  inner,
		prefix: prefix,
	}, nil
}

type prefixIterator struct {
	inner  backend.Iterator
	prefix []byte
	key    []byte
}

func (it *prefixIterator) Next() bool {
	if !it.inner.Next() {
		it.key = nil
		return false
	}

	key := it.inner.Key()
	if !bytes.HasPrefix(key, it.prefix) {
		panic(fmt.Errorf("%w: %x does not start with %x", data.ErrCorruptKey, key, it.prefix))
	}

	it.key = key[len(it.prefix):]
	return true
}

func (it *prefixIterator) Key() []byte {
	return it.key
}

func (it *prefixIterator) Value() []byte {
	return it.inner.Value()
}

func (it *prefixIterator) Err() error {
	return it.inner.Err()
}

func (it *prefixIterator) Close() error {
	return it.inner.Close()
}
