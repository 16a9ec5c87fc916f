// Package backendtest is a conformance suite every store implementation
// is expected to pass.
package backendtest

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
	"github.com/mwantia/nskv/lengthprefix"
	"github.com/mwantia/nskv/namespace"
)

// Factory creates a fresh, empty and unopened store. Stores backed by a
// shared external service should isolate each call, e.g. with a unique
// table or base.
type Factory func(t *testing.T) (backend.StorageBackend, error)

// Run executes every conformance test against stores built by factory.
func Run(t *testing.T, factory Factory) {
	tests := map[string]func(*testing.T, backend.StorageBackend){
		"RoundTrip":        testRoundTrip,
		"Overwrite":        testOverwrite,
		"EmptyValue":       testEmptyValue,
		"RemoveIdempotent": testRemoveIdempotent,
		"RangeBounds":      testRangeBounds,
		"RangeDescending":  testRangeDescending,
		"RangeEarlyClose":  testRangeEarlyClose,
		"RangeExhausted":   testRangeExhausted,
		"BinaryKeys":       testBinaryKeys,
		"Lending":          testLending,
	}

	for name, test := range tests {
		t.Run(name, func(tst *testing.T) {
			store, err := factory(tst)
			if err != nil {
				tst.Fatalf("Backend init failed: %v", err)
			}
			if err := store.Open(tst.Context()); err != nil {
				tst.Fatalf("Backend open failed: %v", err)
			}
			defer store.Close(tst.Context())

			test(tst, store)
		})
	}
}

func seed(t *testing.T, store backend.Storage, keys ...string) {
	t.Helper()

	for _, key := range keys {
		if err := store.Set(t.Context(), []byte(key), []byte("v-"+key)); err != nil {
			t.Fatalf("Set(%q) failed: %v", key, err)
		}
	}
}

func collectKeys(t *testing.T, store backend.Iterable, start, end []byte, order data.Order) []string {
	t.Helper()

	iter, err := store.Range(t.Context(), start, end, order)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}

	pairs, err := backend.Collect(iter)
	if err != nil {
		t.Fatalf("Range iteration failed: %v", err)
	}

	keys := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if want := "v-" + string(pair.Key); string(pair.Value) != want {
			t.Errorf("Value of %q = %q, want %q", pair.Key, pair.Value, want)
		}
		keys = append(keys, string(pair.Key))
	}
	return keys
}

func equalKeys(got, want []string) bool {
	return fmt.Sprint(got) == fmt.Sprint(want)
}

func testRoundTrip(t *testing.T, store backend.StorageBackend) {
	ctx := t.Context()

	if _, found, err := store.Get(ctx, []byte("missing")); err != nil || found {
		t.Fatalf("Get of missing key = (found %v, err %v), want absent", found, err)
	}

	if err := store.Set(ctx, []byte("key"), []byte("value")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, found, err := store.Get(ctx, []byte("key"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found || !bytes.Equal(value, []byte("value")) {
		t.Errorf("Get = (%q, %v), want (\"value\", true)", value, found)
	}
}

func testOverwrite(t *testing.T, store backend.StorageBackend) {
	ctx := t.Context()

	for _, value := range []string{"first", "second"} {
		if err := store.Set(ctx, []byte("key"), []byte(value)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	value, _, err := store.Get(ctx, []byte("key"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(value) != "second" {
		t.Errorf("Expected overwritten value 'second', got %q", value)
	}
}

func testEmptyValue(t *testing.T, store backend.StorageBackend) {
	ctx := t.Context()

	if err := store.Set(ctx, []byte("empty"), []byte{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, found, err := store.Get(ctx, []byte("empty"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatalf("Expected empty value to be found")
	}
	if len(value) != 0 {
		t.Errorf("Expected empty value, got %q", value)
	}
}

func testRemoveIdempotent(t *testing.T, store backend.StorageBackend) {
	ctx := t.Context()
	seed(t, store, "key")

	for i := range 2 {
		if err := store.Remove(ctx, []byte("key")); err != nil {
			t.Fatalf("Remove #%d failed: %v", i+1, err)
		}
	}

	if _, found, err := store.Get(ctx, []byte("key")); err != nil || found {
		t.Errorf("Get after Remove = (found %v, err %v), want absent", found, err)
	}
}

func testRangeBounds(t *testing.T, store backend.StorageBackend) {
	seed(t, store, "a", "b", "ba", "c", "d")

	tests := []struct {
		name  string
		start []byte
		end   []byte
		want  []string
	}{
		{"unbounded", nil, nil, []string{"a", "b", "ba", "c", "d"}},
		{"start", []byte("b"), nil, []string{"b", "ba", "c", "d"}},
		{"end", nil, []byte("c"), []string{"a", "b", "ba"}},
		{"both", []byte("b"), []byte("d"), []string{"b", "ba", "c"}},
		{"between", []byte("bb"), []byte("cc"), []string{"c"}},
		{"empty", []byte("c"), []byte("c"), []string{}},
		{"inverted", []byte("d"), []byte("a"), []string{}},
	}

	for _, tc := range tests {
		got := collectKeys(t, store, tc.start, tc.end, data.Ascending)
		if !equalKeys(got, tc.want) {
			t.Errorf("%s: Range = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func testRangeDescending(t *testing.T, store backend.StorageBackend) {
	seed(t, store, "a", "b", "ba", "c", "d")

	bounds := [][2][]byte{
		{nil, nil},
		{[]byte("b"), nil},
		{nil, []byte("c")},
		{[]byte("b"), []byte("d")},
		{[]byte("ba"), []byte("ba\x00")},
	}

	for _, bound := range bounds {
		asc := collectKeys(t, store, bound[0], bound[1], data.Ascending)
		desc := collectKeys(t, store, bound[0], bound[1], data.Descending)

		if len(asc) != len(desc) {
			t.Errorf("[%q, %q): ascending %v, descending %v", bound[0], bound[1], asc, desc)
			continue
		}
		for i := range asc {
			if asc[i] != desc[len(desc)-1-i] {
				t.Errorf("[%q, %q): descending %v is not the reverse of %v", bound[0], bound[1], desc, asc)
				break
			}
		}
	}
}

func testRangeEarlyClose(t *testing.T, store backend.StorageBackend) {
	seed(t, store, "a", "b", "c")

	iter, err := store.Range(t.Context(), nil, nil, data.Ascending)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if !iter.Next() {
		t.Fatalf("Expected at least one entry: %v", iter.Err())
	}
	if string(iter.Key()) != "a" {
		t.Errorf("Expected first key 'a', got %q", iter.Key())
	}

	if err := iter.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := iter.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
	if iter.Next() {
		t.Errorf("Expected closed iterator to be exhausted")
	}

	// The store stays usable after an abandoned scan
	seed(t, store, "d")
}

func testRangeExhausted(t *testing.T, store backend.StorageBackend) {
	seed(t, store, "a", "b", "c")
	prefix := lengthprefix.Encode([]byte("ns"))
	if err := namespace.Set(t.Context(), store, prefix, []byte("k"), []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ranges := map[string]func(order data.Order) (backend.Iterator, error){
		"unbounded": func(order data.Order) (backend.Iterator, error) {
			return store.Range(t.Context(), nil, nil, order)
		},
		"bounded": func(order data.Order) (backend.Iterator, error) {
			return store.Range(t.Context(), []byte("a"), []byte("b"), order)
		},
		"namespace": func(order data.Order) (backend.Iterator, error) {
			return namespace.Range(t.Context(), store, prefix, nil, nil, order)
		},
	}

	for name, open := range ranges {
		for _, order := range []data.Order{data.Ascending, data.Descending} {
			iter, err := open(order)
			if err != nil {
				t.Fatalf("%s %s: Range failed: %v", name, order, err)
			}

			count := 0
			for iter.Next() {
				count++
			}
			if count == 0 {
				t.Errorf("%s %s: Expected entries before exhaustion", name, order)
			}

			for i := 0; i < 2; i++ {
				if iter.Next() {
					t.Errorf("%s %s: Expected Next after exhaustion to return false", name, order)
				}
			}
			if err := iter.Err(); err != nil {
				t.Errorf("%s %s: Unexpected error after exhaustion: %v", name, order, err)
			}
			if err := iter.Close(); err != nil {
				t.Errorf("%s %s: Close failed: %v", name, order, err)
			}
		}
	}
}

func testBinaryKeys(t *testing.T, store backend.StorageBackend) {
	keys := []string{"\x00", "\x00\x00", "\x00\x01", "\x7f", "\xff", "\xff\xff"}
	seed(t, store, keys...)

	got := collectKeys(t, store, nil, nil, data.Ascending)
	if !equalKeys(got, keys) {
		t.Errorf("Expected byte-wise order %q, got %q", keys, got)
	}

	got = collectKeys(t, store, []byte("\x00\x01"), []byte("\xff\xff"), data.Ascending)
	if want := []string{"\x00\x01", "\x7f", "\xff"}; !equalKeys(got, want) {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func testLending(t *testing.T, store backend.StorageBackend) {
	release, err := store.Lend()
	if err != nil {
		t.Fatalf("Lend failed: %v", err)
	}
	if _, err := store.Lend(); !errors.Is(err, data.ErrBorrowed) {
		t.Errorf("Expected ErrBorrowed on second Lend, got %v", err)
	}
	if _, err := store.Share(); !errors.Is(err, data.ErrBorrowed) {
		t.Errorf("Expected ErrBorrowed on Share while lent, got %v", err)
	}

	// The lease does not lock the raw handle
	if err := store.Set(t.Context(), []byte("raw"), []byte("value")); err != nil {
		t.Errorf("Expected Set on the lent store to succeed, got %v", err)
	}
	if _, found, err := store.Get(t.Context(), []byte("raw")); err != nil || !found {
		t.Errorf("Expected Get on the lent store to succeed, got found=%v err=%v", found, err)
	}

	release()
	release()

	shared, err := store.Share()
	if err != nil {
		t.Fatalf("Share failed: %v", err)
	}
	defer shared()

	if _, err := store.Lend(); !errors.Is(err, data.ErrBorrowed) {
		t.Errorf("Expected ErrBorrowed on Lend while shared, got %v", err)
	}
}
