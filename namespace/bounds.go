package namespace

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil when no such key exists.
//
// The last byte is incremented; trailing 0xFF bytes carry into the byte
// before them and are dropped, so "a\xff" ends at "b". A prefix made only of
// 0xFF bytes (or an empty prefix) has no upper bound and the scan must run
// to the end of the store.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)

	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}

	return nil
}

// RangeBounds translates the logical range [start, end) into the physical
// range of the underlying store. A nil start begins at the prefix itself; a
// nil end stops at PrefixEnd(prefix). A non-nil but empty end selects nothing.
func RangeBounds(prefix, start, end []byte) ([]byte, []byte) {
	pstart := Join(prefix, start)

	var pend []byte
	if end != nil {
		pend = Join(prefix, end)
	} else {
		pend = PrefixEnd(prefix)
	}

	return pstart, pend
}
