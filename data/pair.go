package data

// Pair is a single key-value entry yielded by a range scan.
type Pair struct {
	Key   []byte
	Value []byte
}

// Clone returns a deep copy that does not share memory with p.
func (p Pair) Clone() Pair {
	return Pair{
		Key:   Clone(p.Key),
		Value: Clone(p.Value),
	}
}

// Clone copies b; a nil slice stays nil.
func Clone(b []byte) []byte {
	if b == nil {
		return nil
	}

	c := make([]byte, len(b))
	copy(c, b)
	return c
}
