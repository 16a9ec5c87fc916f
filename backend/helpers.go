package backend

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// NamedKey maps a binary key onto a string-keyed store. The key is hex
// encoded, which keeps byte-wise order, and placed below base as `base/hex`.
// An empty base yields just the hex form.
func NamedKey(base string, key []byte) string {
	if base == "" {
		return hex.EncodeToString(key)
	}

	return base + "/" + hex.EncodeToString(key)
}

// ParseNamedKey reverses NamedKey.
func ParseNamedKey(base, name string) ([]byte, error) {
	if base != "" {
		trimmed, ok := strings.CutPrefix(name, base+"/")
		if !ok {
			return nil, fmt.Errorf("backend: key '%s' outside of base '%s'", name, base)
		}
		name = trimmed
	}

	return hex.DecodeString(name)
}

// CommonPrefix returns the longest common prefix of a and b.
func CommonPrefix(a, b []byte) []byte {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}

// ListPrefix returns the string prefix a string-keyed store should list to
// cover [start, end). Hex digits come in pairs, so only whole bytes of the
// common prefix are used.
func ListPrefix(base string, start, end []byte) string {
	if start == nil || end == nil {
		if base == "" {
			return ""
		}
		return base + "/"
	}

	return NamedKey(base, CommonPrefix(start, end))
}
