package memory

import (
	"context"

	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
	"github.com/tidwall/btree"
)

func (mb *MemoryBackend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	if err := mb.checkOpen(); err != nil {
		return nil, false, err
	}

	value, exists := mb.keys.Get(string(key))
	if !exists {
		return nil, false, nil
	}
	return data.Clone(value), true, nil
}

func (mb *MemoryBackend) Set(ctx context.Context, key, value []byte) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if err := mb.checkOpen(); err != nil {
		return err
	}

	// Never keep a reference to the caller's buffer
	stored := make([]byte, len(value))
	copy(stored, value)

	mb.keys.Set(string(key), stored)
	return nil
}

func (mb *MemoryBackend) Remove(ctx context.Context, key []byte) error {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if err := mb.checkOpen(); err != nil {
		return err
	}

	mb.keys.Delete(string(key))
	return nil
}

func (mb *MemoryBackend) Range(ctx context.Context, start, end []byte, order data.Order) (backend.Iterator, error) {
	// Copy re-tags the source tree, hence the write lock
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if err := mb.checkOpen(); err != nil {
		return nil, err
	}

	it := &memoryIterator{
		snapshot: mb.keys.Copy(),
		order:    order,
		start:    start,
		end:      end,
	}
	it.iter = it.snapshot.Iter()
	return it, nil
}

type memoryIterator struct {
	snapshot *btree.Map[string, []byte]
	iter     btree.MapIter[string, []byte]
	order    data.Order
	start    []byte
	end      []byte

	started bool
	done    bool
	key     []byte
	value   []byte
}

func (it *memoryIterator) Next() bool {
	if it.done {
		return false
	}

	var ok bool
	if !it.started {
		it.started = true
		ok = it.seek()
	} else if it.order == data.Descending {
		ok = it.iter.Prev()
	} else {
		ok = it.iter.Next()
	}

	if !ok || !backend.InRange([]byte(it.iter.Key()), it.start, it.end) {
		it.finish()
		return false
	}

	it.key = []byte(it.iter.Key())
	it.value = data.Clone(it.iter.Value())
	return true
}

// seek positions the cursor on the first entry in scan order.
func (it *memoryIterator) seek() bool {
	if it.order != data.Descending {
		if it.start == nil {
			return it.iter.First()
		}
		return it.iter.Seek(string(it.start))
	}

	if it.end == nil {
		return it.iter.Last()
	}
	// Seek lands on the first key >= end; the entry before it is the
	// largest key < end. Without such a key every entry is below end.
	if it.iter.Seek(string(it.end)) {
		return it.iter.Prev()
	}
	return it.iter.Last()
}

func (it *memoryIterator) finish() {
	it.done = true
	it.key = nil
	it.value = nil
}

func (it *memoryIterator) Key() []byte {
	return it.key
}

func (it *memoryIterator) Value() []byte {
	return it.value
}

func (it *memoryIterator) Err() error {
	return nil
}

func (it *memoryIterator) Close() error {
	it.finish()
	it.snapshot = nil
	return nil
}
