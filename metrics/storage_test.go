package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/mwantia/nskv"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/backend/memory"
	"github.com/mwantia/nskv/data"
	"github.com/mwantia/nskv/lengthprefix"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// pointStore supports no ranges and lends nothing.
type pointStore struct {
	values map[string][]byte
	fail   error
}

func (p *pointStore) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if p.fail != nil {
		return nil, false, p.fail
	}
	value, ok := p.values[string(key)]
	return value, ok, nil
}

func (p *pointStore) Set(ctx context.Context, key, value []byte) error {
	if p.fail != nil {
		return p.fail
	}
	p.values[string(key)] = value
	return nil
}

func (p *pointStore) Remove(ctx context.Context, key []byte) error {
	delete(p.values, string(key))
	return nil
}

func TestInstrumentCountsOperations(t *testing.T) {
	ctx := t.Context()
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	store, err := memory.NewMemoryBackend()
	if err != nil {
		t.Fatalf("Failed to create memory backend: %v", err)
	}
	if err := store.Open(ctx); err != nil {
		t.Fatalf("Failed to open memory backend: %v", err)
	}

	instrumented := Instrument(store, metrics, "memory")

	if err := instrumented.Set(ctx, []byte("a"), []byte("1")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := instrumented.Set(ctx, []byte("b"), []byte("2")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, _, err := instrumented.Get(ctx, []byte("a")); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	iter, err := instrumented.Range(ctx, nil, nil, data.Ascending)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	pairs, err := backend.Collect(iter)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(pairs) != 2 {
		t.Errorf("Expected 2 pairs, got %d", len(pairs))
	}

	if got := testutil.ToFloat64(metrics.Operations.WithLabelValues("memory", OperationSet)); got != 2 {
		t.Errorf("Expected 2 set operations, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Operations.WithLabelValues("memory", OperationGet)); got != 1 {
		t.Errorf("Expected 1 get operation, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Operations.WithLabelValues("memory", OperationRange)); got != 1 {
		t.Errorf("Expected 1 range operation, got %v", got)
	}
	if got := testutil.CollectAndCount(metrics.Errors); got != 0 {
		t.Errorf("Expected no error series, got %d", got)
	}
}

func TestInstrumentCountsErrors(t *testing.T) {
	ctx := t.Context()
	metrics := NewMetrics(prometheus.NewRegistry())

	failure := errors.New("boom")
	instrumented := Instrument(&pointStore{values: map[string][]byte{}, fail: failure}, metrics, "point")

	if err := instrumented.Set(ctx, []byte("a"), []byte("1")); !errors.Is(err, failure) {
		t.Fatalf("Expected %v, got %v", failure, err)
	}
	if got := testutil.ToFloat64(metrics.Errors.WithLabelValues("point", OperationSet)); got != 1 {
		t.Errorf("Expected 1 set error, got %v", got)
	}
}

func TestInstrumentRangeUnsupported(t *testing.T) {
	ctx := t.Context()
	metrics := NewMetrics(prometheus.NewRegistry())

	instrumented := Instrument(&pointStore{values: map[string][]byte{}}, metrics, "point")
	if _, err := instrumented.Range(ctx, nil, nil, data.Ascending); !errors.Is(err, data.ErrRangeUnsupported) {
		t.Fatalf("Expected ErrRangeUnsupported, got %v", err)
	}
	if got := testutil.ToFloat64(metrics.Errors.WithLabelValues("point", OperationRange)); got != 1 {
		t.Errorf("Expected 1 range error, got %v", got)
	}
}

func TestInstrumentLending(t *testing.T) {
	instrumented := Instrument(&pointStore{values: map[string][]byte{}}, NewMetrics(nil), "point")

	release, err := instrumented.Lend()
	if err != nil {
		t.Fatalf("Lend failed: %v", err)
	}
	if _, err := instrumented.Share(); !errors.Is(err, data.ErrBorrowed) {
		t.Errorf("Expected ErrBorrowed while lent, got %v", err)
	}

	release()
	if instrumented.Lent() {
		t.Errorf("Expected lease to be returned")
	}
}

func TestInstrumentNestedView(t *testing.T) {
	store, err := memory.NewMemoryBackend()
	if err != nil {
		t.Fatalf("NewMemoryBackend failed: %v", err)
	}

	outer, err := nskv.New(store, []byte("foo"))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer outer.Release()

	metrics := NewMetrics(nil)
	instrumented := Instrument(outer, metrics, "outer")

	inner, err := nskv.New(instrumented, []byte("bar"))
	if err != nil {
		t.Fatalf("Nested New failed: %v", err)
	}
	if err := inner.Set(t.Context(), []byte("baz"), []byte("winner")); err != nil {
		t.Fatalf("Set through nested view failed: %v", err)
	}

	iter, err := inner.Range(t.Context(), nil, nil, data.Ascending)
	if err != nil {
		t.Fatalf("Range through nested view failed: %v", err)
	}
	pairs, err := backend.Collect(iter)
	if err != nil || len(pairs) != 1 || string(pairs[0].Key) != "baz" {
		t.Errorf("Expected single pair baz, got %v (%v)", pairs, err)
	}

	// While the nested view lives, the outer view and its wrapper are lent
	if _, _, err := outer.Get(t.Context(), []byte("x")); !errors.Is(err, data.ErrBorrowed) {
		t.Errorf("Expected ErrBorrowed on outer view, got %v", err)
	}
	if _, _, err := instrumented.Get(t.Context(), []byte("x")); !errors.Is(err, data.ErrBorrowed) {
		t.Errorf("Expected ErrBorrowed on wrapper, got %v", err)
	}

	if got := testutil.ToFloat64(metrics.Operations.WithLabelValues("outer", OperationSet)); got != 1 {
		t.Errorf("Expected nested set to be recorded once, got %v", got)
	}

	inner.Release()

	key := append(lengthprefix.Encode([]byte("bar")), "baz"...)
	value, found, err := instrumented.Get(t.Context(), key)
	if err != nil || !found || string(value) != "winner" {
		t.Errorf("Expected winner after release, got %q found=%v err=%v", value, found, err)
	}
}
