package backend

import (
	"github.com/mwantia/nskv/data"
)

// SliceIterator iterates over a fully materialised list of pairs. Stores
// without a native cursor (consul, s3 descending) use it.
type SliceIterator struct {
	pairs []data.Pair
	pos   int
	cur   data.Pair
}

var _ Iterator = (*SliceIterator)(nil)

// NewSliceIterator returns an iterator over pairs, reversed when order is
// descending. The pairs must already be sorted ascending.
func NewSliceIterator(pairs []data.Pair, order data.Order) *SliceIterator {
	if order == data.Descending {
		reversed := make([]data.Pair, len(pairs))
		for i, p := range pairs {
			reversed[len(pairs)-1-i] = p
		}
		pairs = reversed
	}

	return &SliceIterator{pairs: pairs}
}

func (it *SliceIterator) Next() bool {
	if it.pos >= len(it.pairs) {
		it.cur = data.Pair{}
		return false
	}

	it.cur = it.pairs[it.pos]
	it.pos++
	return true
}

func (it *SliceIterator) Key() []byte {
	return it.cur.Key
}

func (it *SliceIterator) Value() []byte {
	return it.cur.Value
}

func (it *SliceIterator) Err() error {
	return nil
}

func (it *SliceIterator) Close() error {
	it.pairs = nil
	it.pos = 0
	return nil
}

// Collect drains it into a slice and closes it.
func Collect(it Iterator) ([]data.Pair, error) {
	defer it.Close()

	var pairs []data.Pair
	for it.Next() {
		pairs = append(pairs, data.Pair{
			Key:   data.Clone(it.Key()),
			Value: data.Clone(it.Value()),
		})
	}

	if err := it.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// InRange reports whether key lies in [start, end) with nil bounds open.
func InRange(key, start, end []byte) bool {
	if start != nil && string(key) < string(start) {
		return false
	}
	if end != nil && string(key) >= string(end) {
		return false
	}
	return true
}
