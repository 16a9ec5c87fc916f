package lengthprefix

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/mwantia/nskv/data"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name      string
		namespace []byte
		want      []byte
	}{
		{"empty", []byte{}, []byte{0, 0}},
		{"short", []byte("a"), []byte{0, 1, 'a'}},
		{"word", []byte("foo"), []byte{0, 3, 'f', 'o', 'o'}},
		{"binary", []byte{0xff, 0x00}, []byte{0, 2, 0xff, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Encode(tt.namespace); !bytes.Equal(got, tt.want) {
				t.Errorf("Encode(%q) = %v, want %v", tt.namespace, got, tt.want)
			}
		})
	}
}

func TestEncode_LongNamespace(t *testing.T) {
	ns := bytes.Repeat([]byte{'x'}, 256)
	got := Encode(ns)
	if got[0] != 1 || got[1] != 0 {
		t.Errorf("Expected big-endian header 0x0100, got %#x %#x", got[0], got[1])
	}

	max := bytes.Repeat([]byte{'x'}, MaxNamespaceLength)
	got = Encode(max)
	if got[0] != 0xff || got[1] != 0xff || len(got) != MaxNamespaceLength+2 {
		t.Errorf("Expected maximal header and full length, got %#x %#x len=%d", got[0], got[1], len(got))
	}
}

func TestEncode_TooLongPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Expected panic for oversized namespace")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, data.ErrNamespaceTooLong) {
			t.Errorf("Expected ErrNamespaceTooLong, got %v", r)
		}
	}()

	Encode(make([]byte, MaxNamespaceLength+1))
}

func TestEncodeNested(t *testing.T) {
	got := EncodeNested([]byte("a"), []byte("bc"))
	want := []byte{0, 1, 'a', 0, 2, 'b', 'c'}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeNested = %v, want %v", got, want)
	}

	// Nesting equals concatenation of single encodings.
	concat := append(Encode([]byte("foo")), Encode([]byte("bar"))...)
	if nested := EncodeNested([]byte("foo"), []byte("bar")); !bytes.Equal(nested, concat) {
		t.Errorf("Expected %v, got %v", concat, nested)
	}

	if single := EncodeNested([]byte("foo")); !bytes.Equal(single, Encode([]byte("foo"))) {
		t.Errorf("Expected single-element list to match Encode, got %v", single)
	}

	if empty := EncodeNested(); len(empty) != 0 {
		t.Errorf("Expected empty prefix for empty list, got %v", empty)
	}
}

func TestEncodeNested_SeparatorAmbiguity(t *testing.T) {
	left := EncodeNested([]byte("ab"), []byte("c"))
	right := EncodeNested([]byte("a"), []byte("bc"))
	if bytes.Equal(left, right) {
		t.Fatalf("Expected distinct encodings, both are %v", left)
	}
	if bytes.HasPrefix(left, right) || bytes.HasPrefix(right, left) {
		t.Errorf("Expected neither encoding to prefix the other: %v / %v", left, right)
	}
}

// randomNamespaces draws short namespaces from a tiny alphabet so that
// collisions would be likely under a naive scheme.
func randomNamespaces(r *rand.Rand) [][]byte {
	depth := 1 + r.IntN(3)
	out := make([][]byte, depth)
	for i := range out {
		ns := make([]byte, r.IntN(4))
		for j := range ns {
			ns[j] = []byte{0x00, 0x01, 'a', 0xff}[r.IntN(4)]
		}
		out[i] = ns
	}
	return out
}

func equalLists(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// isListPrefix reports whether a is a leading sub-list of b. Such lists are
// deliberately nested: the outer namespace contains the inner one.
func isListPrefix(a, b [][]byte) bool {
	return len(a) <= len(b) && equalLists(a, b[:len(a)])
}

func TestEncodeNested_CollisionFreedom(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 5000; i++ {
		n1 := randomNamespaces(r)
		n2 := randomNamespaces(r)
		if equalLists(n1, n2) {
			continue
		}

		e1 := EncodeNested(n1...)
		e2 := EncodeNested(n2...)
		if bytes.Equal(e1, e2) {
			t.Fatalf("Collision: %q and %q both encode to %v", n1, n2, e1)
		}
		if isListPrefix(n1, n2) || isListPrefix(n2, n1) {
			continue
		}
		if bytes.HasPrefix(e1, e2) || bytes.HasPrefix(e2, e1) {
			t.Fatalf("Prefix overlap: %q -> %v, %q -> %v", n1, e1, n2, e2)
		}
	}
}

func TestDecode(t *testing.T) {
	key := append(EncodeNested([]byte("foo"), []byte("bar")), []byte("baz")...)

	namespaces, rest, err := Decode(key, 2)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !equalLists(namespaces, [][]byte{[]byte("foo"), []byte("bar")}) {
		t.Errorf("Unexpected namespaces %q", namespaces)
	}
	if string(rest) != "baz" {
		t.Errorf("Expected rest 'baz', got %q", rest)
	}

	// Decoding fewer levels leaves the inner prefix in the key.
	namespaces, rest, err = Decode(key, 1)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(namespaces) != 1 || string(namespaces[0]) != "foo" {
		t.Errorf("Unexpected namespaces %q", namespaces)
	}
	if !bytes.Equal(rest, append(Encode([]byte("bar")), "baz"...)) {
		t.Errorf("Unexpected rest %v", rest)
	}
}

func TestDecode_Corrupt(t *testing.T) {
	for name, key := range map[string][]byte{
		"empty":          {},
		"half header":    {0},
		"short segment":  {0, 5, 'a', 'b'},
		"missing second": {0, 1, 'a'},
	} {
		t.Run(name, func(t *testing.T) {
			if _, _, err := Decode(key, 2); !errors.Is(err, data.ErrCorruptKey) {
				t.Errorf("Expected ErrCorruptKey, got %v", err)
			}
		})
	}
}

func TestDecode_NegativeDepth(t *testing.T) {
	if _, _, err := Decode([]byte{0, 1, 'a'}, -1); !errors.Is(err, data.ErrCorruptKey) {
		t.Errorf("Expected ErrCorruptKey, got %v", err)
	}
}
