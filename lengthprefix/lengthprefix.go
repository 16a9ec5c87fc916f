// Package lengthprefix encodes namespaces into unambiguous key prefixes.
//
// Every namespace segment is written as a 2-byte big-endian length followed
// by the raw segment bytes. Segments are concatenated in order, so
// ["ab", "c"] and ["a", "bc"] produce different prefixes and no encoded list
// is ever a prefix of the encoding of a different list of the same depth.
//
// The layout is part of the storage contract: changing it invalidates every
// key written before.
package lengthprefix

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/mwantia/nskv/data"
)

// MaxNamespaceLength is the longest segment a 2-byte header can describe.
const MaxNamespaceLength = math.MaxUint16

const headerSize = 2

// Encode returns the length-prefixed form of a single namespace.
// It panics if the namespace is longer than MaxNamespaceLength.
func Encode(namespace []byte) []byte {
	out := make([]byte, 0, headerSize+len(namespace))
	return appendSegment(out, namespace)
}

// EncodeNested encodes a list of namespaces. It is equivalent to
// concatenating Encode of every element and to nesting single-level
// prefixes one inside another.
// Calling it without namespaces returns an empty prefix, which aliases the
// whole store and is treated as a caller error by the views.
func EncodeNested(namespaces ...[]byte) []byte {
	size := 0
	for _, ns := range namespaces {
		size += headerSize + len(ns)
	}

	out := make([]byte, 0, size)
	for _, ns := range namespaces {
		out = appendSegment(out, ns)
	}
	return out
}

func appendSegment(out, namespace []byte) []byte {
	if len(namespace) > MaxNamespaceLength {
		panic(fmt.Errorf("%w: got %d bytes", data.ErrNamespaceTooLong, len(namespace)))
	}

	out = binary.BigEndian.AppendUint16(out, uint16(len(namespace)))
	return append(out, namespace...)
}

// Decode splits depth namespace segments off the front of a physical key and
// returns them together with the remaining logical key.
func Decode(key []byte, depth int) ([][]byte, []byte, error) {
	if depth < 0 {
		return nil, nil, fmt.Errorf("%w: negative depth %d", data.ErrCorruptKey, depth)
	}

	namespaces := make([][]byte, 0, depth)
	rest := key

	for i := 0; i < depth; i++ {
		if len(rest) < headerSize {
			return nil, nil, fmt.Errorf("%w: segment %d has truncated header", data.ErrCorruptKey, i)
		}

		size := int(binary.BigEndian.Uint16(rest))
		rest = rest[headerSize:]
		if len(rest) < size {
			return nil, nil, fmt.Errorf("%w: segment %d wants %d bytes, %d left", data.ErrCorruptKey, i, size, len(rest))
		}

		namespaces = append(namespaces, rest[:size])
		rest = rest[size:]
	}

	return namespaces, rest, nil
}
