// Package namespace applies a fixed prefix to keys before delegating to an
// underlying store, and translates logical range queries into physical ones.
//
// Prefixes are produced by package lengthprefix. Nothing here validates
// them beyond requiring that every scanned key starts with the prefix.
package namespace

import (
	"context"

	"github.com/mwantia/nskv/backend"
)

// Join returns prefix ++ key in a single allocation.
func Join(prefix, key []byte) []byte {
	out := make([]byte, len(prefix)+len(key))
	copy(out, prefix)
	copy(out[len(prefix):], key)
	return out
}

// Get reads the physical key prefix ++ key.
func Get(ctx context.Context, store backend.ReadonlyStorage, prefix, key []byte) ([]byte, bool, error) {
	return store.Get(ctx, Join(prefix, key))
}

// Set writes value at the physical key prefix ++ key.
func Set(ctx context.Context, store backend.Storage, prefix, key, value []byte) error {
	return store.Set(ctx, Join(prefix, key), value)
}

// Remove deletes the physical key prefix ++ key if present.
func Remove(ctx context.Context, store backend.Storage, prefix, key []byte) error {
	return store.Remove(ctx, Join(prefix, key))
}
