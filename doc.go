// Package nskv multiplexes independent, nestable key spaces over a single
// flat key-value store.
//
// Every namespace is turned into a length-prefixed byte string (see package
// lengthprefix) and prepended to each key before it reaches the store. Two
// different namespaces therefore never address the same physical key, and a
// range scan inside one namespace never sees keys of another.
//
//	store, _ := memory.NewMemoryBackend()
//	balances, _ := nskv.New(store, []byte("balance"))
//	defer balances.Release()
//
//	_ = balances.Set(ctx, []byte("alice"), []byte("100"))
//
// Views can be nested, or built for several namespaces at once with
// Multilevel; both produce the same physical keys.
package nskv
