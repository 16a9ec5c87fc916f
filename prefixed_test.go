package nskv_test

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/mwantia/nskv"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/backend/memory"
	"github.com/mwantia/nskv/data"
	"github.com/mwantia/nskv/lengthprefix"
)

func newStore(t *testing.T) *memory.MemoryBackend {
	t.Helper()

	store, err := memory.NewMemoryBackend()
	if err != nil {
		t.Fatalf("Failed to create memory backend: %v", err)
	}
	if err := store.Open(t.Context()); err != nil {
		t.Fatalf("Failed to open memory backend: %v", err)
	}
	return store
}

func mustGet(t *testing.T, store backend.ReadonlyStorage, key string) ([]byte, bool) {
	t.Helper()

	value, found, err := store.Get(t.Context(), []byte(key))
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	return value, found
}

func collect(t *testing.T, store backend.Iterable, start, end []byte, order data.Order) []data.Pair {
	t.Helper()

	iter, err := store.Range(t.Context(), start, end, order)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	pairs, err := backend.Collect(iter)
	if err != nil {
		t.Fatalf("Range iteration failed: %v", err)
	}
	return pairs
}

func TestPrefixed_MultiLevel(t *testing.T) {
	ctx := t.Context()
	store := newStore(t)

	foo, err := nskv.New(store, []byte("foo"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	bar, err := nskv.New(foo, []byte("bar"))
	if err != nil {
		t.Fatalf("Nested New failed: %v", err)
	}

	if err := bar.Set(ctx, []byte("baz"), []byte("winner")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	bar.Release()
	foo.Release()

	multi, err := nskv.Multilevel(store, []byte("foo"), []byte("bar"))
	if err != nil {
		t.Fatalf("Multilevel failed: %v", err)
	}

	value, found := mustGet(t, multi, "baz")
	if !found || string(value) != "winner" {
		t.Errorf("Expected 'winner', got (%q, %v)", value, found)
	}

	if err := multi.Set(ctx, []byte("second"), []byte("time")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	multi.Release()

	foo, err = nskv.Prefixed(store, []byte("foo"))
	if err != nil {
		t.Fatalf("Prefixed failed: %v", err)
	}
	defer foo.Release()

	bar, err = nskv.Prefixed(foo, []byte("bar"))
	if err != nil {
		t.Fatalf("Nested Prefixed failed: %v", err)
	}
	defer bar.Release()

	value, found = mustGet(t, bar, "second")
	if !found || string(value) != "time" {
		t.Errorf("Expected 'time', got (%q, %v)", value, found)
	}
}

func TestPrefixed_PhysicalLayout(t *testing.T) {
	ctx := t.Context()
	store := newStore(t)

	view, err := nskv.Multilevel(store, []byte("foo"), []byte("bar"))
	if err != nil {
		t.Fatalf("Multilevel failed: %v", err)
	}
	if err := view.Set(ctx, []byte("baz"), []byte("winner")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	view.Release()

	physical := []byte("\x00\x03foo\x00\x03barbaz")
	value, found := mustGet(t, store, string(physical))
	if !found || string(value) != "winner" {
		t.Errorf("Expected value at physical key %x, got (%q, %v)", physical, value, found)
	}
}

func TestPrefixed_EmptyRange(t *testing.T) {
	store := newStore(t)

	view, err := nskv.New(store, []byte("foo"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer view.Release()

	if pairs := collect(t, view, nil, nil, data.Ascending); len(pairs) != 0 {
		t.Errorf("Expected empty range, got %v", pairs)
	}
	if pairs := collect(t, view, nil, nil, data.Descending); len(pairs) != 0 {
		t.Errorf("Expected empty descending range, got %v", pairs)
	}
}

func TestPrefixed_RoundTripAndRemove(t *testing.T) {
	ctx := t.Context()
	store := newStore(t)

	view, err := nskv.New(store, []byte("balance"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer view.Release()

	keys := [][]byte{{}, []byte("alice"), {0x00}, {0xff, 0xff}}
	for i, key := range keys {
		value := []byte{byte(i), 'v'}
		if err := view.Set(ctx, key, value); err != nil {
			t.Fatalf("Set(%x) failed: %v", key, err)
		}

		got, found := mustGet(t, view, string(key))
		if !found || !bytes.Equal(got, value) {
			t.Errorf("Get(%x) = (%x, %v), want %x", key, got, found, value)
		}
	}

	for range 2 {
		if err := view.Remove(ctx, []byte("alice")); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}
	}
	if _, found := mustGet(t, view, "alice"); found {
		t.Errorf("Expected 'alice' to be removed")
	}
	if store.Len() != len(keys)-1 {
		t.Errorf("Expected %d physical keys, got %d", len(keys)-1, store.Len())
	}
}

func TestPrefixed_Isolation(t *testing.T) {
	ctx := t.Context()
	store := newStore(t)

	// Without length headers these two would share physical keys
	for _, ns := range [][]byte{[]byte("ab"), []byte("a")} {
		view, err := nskv.New(store, ns)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if err := view.Set(ctx, []byte("bc"), ns); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := view.Set(ctx, []byte("c"), ns); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		view.Release()
	}

	view, err := nskv.NewReadonly(store, []byte("a"))
	if err != nil {
		t.Fatalf("NewReadonly failed: %v", err)
	}
	defer view.Release()

	pairs := collect(t, view, nil, nil, data.Ascending)
	if len(pairs) != 2 {
		t.Fatalf("Expected 2 keys in namespace 'a', got %d", len(pairs))
	}
	for _, pair := range pairs {
		if string(pair.Value) != "a" {
			t.Errorf("Key %q leaked from namespace %q", pair.Key, pair.Value)
		}
	}
}

func TestPrefixed_RangeBoundsAndSymmetry(t *testing.T) {
	ctx := t.Context()
	store := newStore(t)

	// Neighbouring namespaces must never show up in the scan
	for _, ns := range []string{"fo", "foo", "fop"} {
		view, err := nskv.New(store, []byte(ns))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		for _, key := range []string{"", "a", "b", "c", "d", "\xff"} {
			if err := view.Set(ctx, []byte(key), []byte(ns+":"+key)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
		}
		view.Release()
	}

	view, err := nskv.New(store, []byte("foo"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer view.Release()

	tests := []struct {
		start, end []byte
		want       []string
	}{
		{nil, nil, []string{"", "a", "b", "c", "d", "\xff"}},
		{[]byte("b"), nil, []string{"b", "c", "d", "\xff"}},
		{nil, []byte("c"), []string{"", "a", "b"}},
		{[]byte("a"), []byte("d"), []string{"a", "b", "c"}},
		{[]byte{}, []byte{}, nil},
		{[]byte("c"), []byte("b"), nil},
	}

	for _, tc := range tests {
		asc := collect(t, view, tc.start, tc.end, data.Ascending)
		desc := collect(t, view, tc.start, tc.end, data.Descending)

		if len(asc) != len(tc.want) {
			t.Errorf("[%q, %q): got %d keys, want %q", tc.start, tc.end, len(asc), tc.want)
			continue
		}
		for i, pair := range asc {
			if string(pair.Key) != tc.want[i] {
				t.Errorf("[%q, %q): key %d = %q, want %q", tc.start, tc.end, i, pair.Key, tc.want[i])
			}
			if string(pair.Value) != "foo:"+tc.want[i] {
				t.Errorf("[%q, %q): value %q from a foreign namespace", tc.start, tc.end, pair.Value)
			}
			if mirror := desc[len(desc)-1-i]; !bytes.Equal(mirror.Key, pair.Key) {
				t.Errorf("[%q, %q): descending is not the reverse of ascending", tc.start, tc.end)
			}
		}
	}
}

func TestPrefixed_AllOnesPrefix(t *testing.T) {
	ctx := t.Context()
	store := newStore(t)

	// A namespace of 65535 0xFF bytes encodes to an all-0xFF prefix, which
	// has no finite upper bound
	ns := bytes.Repeat([]byte{0xff}, lengthprefix.MaxNamespaceLength)

	view, err := nskv.New(store, ns)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer view.Release()

	for _, key := range []string{"a", "\xff", "\xff\xff"} {
		if err := view.Set(ctx, []byte(key), []byte(key)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	pairs := collect(t, view, nil, nil, data.Ascending)
	if len(pairs) != 3 {
		t.Fatalf("Expected 3 keys, got %d", len(pairs))
	}
	if string(pairs[2].Key) != "\xff\xff" {
		t.Errorf("Expected last key ff ff, got %x", pairs[2].Key)
	}
}

func TestPrefixed_NamespaceTooLong(t *testing.T) {
	store := newStore(t)

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, data.ErrNamespaceTooLong) {
			t.Errorf("Expected panic with ErrNamespaceTooLong, got %v", r)
		}
		if store.Lent() {
			t.Errorf("Expected no lease to be taken")
		}
	}()

	nskv.New(store, make([]byte, lengthprefix.MaxNamespaceLength+1))
}

func TestPrefixed_NoNamespace(t *testing.T) {
	store := newStore(t)

	if _, err := nskv.Multilevel(store); !errors.Is(err, data.ErrNoNamespace) {
		t.Errorf("Expected ErrNoNamespace, got %v", err)
	}
	if _, err := nskv.MultilevelReadonly(store); !errors.Is(err, data.ErrNoNamespace) {
		t.Errorf("Expected ErrNoNamespace, got %v", err)
	}
}

// TestPrefixed_NestingEquivalence drives a multilevel view and a chain of
// nested views with the same random operations on two stores and expects
// identical physical contents.
func TestPrefixed_NestingEquivalence(t *testing.T) {
	ctx := t.Context()
	rng := rand.New(rand.NewPCG(7, 11))

	multiStore := newStore(t)
	nestedStore := newStore(t)

	multi, err := nskv.Multilevel(multiStore, []byte("foo"), []byte("bar"))
	if err != nil {
		t.Fatalf("Multilevel failed: %v", err)
	}
	defer multi.Release()

	foo, err := nskv.New(nestedStore, []byte("foo"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer foo.Release()

	nested, err := nskv.New(foo, []byte("bar"))
	if err != nil {
		t.Fatalf("Nested New failed: %v", err)
	}
	defer nested.Release()

	randomKey := func() []byte {
		key := make([]byte, rng.IntN(4))
		for i := range key {
			key[i] = []byte{0x00, 'a', 'b', 0xff}[rng.IntN(4)]
		}
		return key
	}

	for i := range 500 {
		key := randomKey()
		value := []byte{byte(i), byte(i >> 8)}
		remove := rng.IntN(3) == 0

		for _, view := range []*nskv.PrefixedStorage{multi, nested} {
			var err error
			if remove {
				err = view.Remove(ctx, key)
			} else {
				err = view.Set(ctx, key, value)
			}
			if err != nil {
				t.Fatalf("Operation %d failed: %v", i, err)
			}
		}

		multiValue, multiFound := mustGet(t, multi, string(key))
		nestedValue, nestedFound := mustGet(t, nested, string(key))
		if multiFound != nestedFound || !bytes.Equal(multiValue, nestedValue) {
			t.Fatalf("Operation %d: views disagree on %x", i, key)
		}
	}

	start, end := []byte("a"), []byte("b\xff")
	for _, order := range []data.Order{data.Ascending, data.Descending} {
		a := collect(t, multi, start, end, order)
		b := collect(t, nested, start, end, order)
		if len(a) != len(b) {
			t.Fatalf("%s: range lengths differ: %d vs %d", order, len(a), len(b))
		}
		for i := range a {
			if !bytes.Equal(a[i].Key, b[i].Key) || !bytes.Equal(a[i].Value, b[i].Value) {
				t.Errorf("%s: entry %d differs: %x vs %x", order, i, a[i].Key, b[i].Key)
			}
		}
	}

	physicalA := collect(t, multiStore, nil, nil, data.Ascending)
	physicalB := collect(t, nestedStore, nil, nil, data.Ascending)
	if len(physicalA) != len(physicalB) {
		t.Fatalf("Physical key counts differ: %d vs %d", len(physicalA), len(physicalB))
	}
	for i := range physicalA {
		if !bytes.Equal(physicalA[i].Key, physicalB[i].Key) {
			t.Errorf("Physical key %d differs: %x vs %x", i, physicalA[i].Key, physicalB[i].Key)
		}
	}
}

// pointStore implements only the point operations.
type pointStore struct {
	values map[string][]byte
}

func (p *pointStore) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	value, ok := p.values[string(key)]
	return value, ok, nil
}

func (p *pointStore) Set(ctx context.Context, key, value []byte) error {
	p.values[string(key)] = value
	return nil
}

func (p *pointStore) Remove(ctx context.Context, key []byte) error {
	delete(p.values, string(key))
	return nil
}

func TestPrefixed_PointOnlyStore(t *testing.T) {
	ctx := t.Context()
	store := &pointStore{values: map[string][]byte{}}

	view, err := nskv.New(store, []byte("foo"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer view.Release()

	if err := view.Set(ctx, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if value, found := mustGet(t, view, "k"); !found || string(value) != "v" {
		t.Errorf("Expected 'v', got (%q, %v)", value, found)
	}
	if _, err := view.Range(ctx, nil, nil, data.Ascending); !errors.Is(err, data.ErrRangeUnsupported) {
		t.Errorf("Expected ErrRangeUnsupported, got %v", err)
	}
}
