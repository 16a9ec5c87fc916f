package consul

import (
	"bytes"
	"context"
	"slices"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/data"
)

func (cb *ConsulBackend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	kv, err := cb.client()
	if err != nil {
		return nil, false, err
	}

	pair, _, err := kv.Get(backend.NamedKey(cb.base, key), (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, false, err
	}
	if pair == nil {
		return nil, false, nil
	}

	return value(pair), true, nil
}

func (cb *ConsulBackend) Set(ctx context.Context, key, val []byte) error {
	kv, err := cb.client()
	if err != nil {
		return err
	}

	pair := &api.KVPair{
		Key:   backend.NamedKey(cb.base, key),
		Value: data.Clone(val),
	}
	if _, err := kv.Put(pair, (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		cb.log.Error("Set failed: %v", err)
		return err
	}
	return nil
}

func (cb *ConsulBackend) Remove(ctx context.Context, key []byte) error {
	kv, err := cb.client()
	if err != nil {
		return err
	}

	if _, err := kv.Delete(backend.NamedKey(cb.base, key), (&api.WriteOptions{}).WithContext(ctx)); err != nil {
		cb.log.Error("Remove failed: %v", err)
		return err
	}
	return nil
}

func (cb *ConsulBackend) Range(ctx context.Context, start, end []byte, order data.Order) (backend.Iterator, error) {
	kv, err := cb.client()
	if err != nil {
		return nil, err
	}

	prefix := backend.ListPrefix(cb.base, start, end)
	pairs, _, err := kv.List(prefix, (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, err
	}

	result := make([]data.Pair, 0, len(pairs))
	for _, pair := range pairs {
		key, err := backend.ParseNamedKey(cb.base, pair.Key)
		if err != nil {
			// Foreign entries below the base are not ours
			cb.log.Debug("skipping key '%s': %v", pair.Key, err)
			continue
		}
		if !backend.InRange(key, start, end) {
			continue
		}
		result = append(result, data.Pair{Key: key, Value: value(pair)})
	}

	slices.SortFunc(result, func(a, b data.Pair) int {
		return bytes.Compare(a.Key, b.Key)
	})

	return backend.NewSliceIterator(result, order), nil
}

// value never returns nil for a present pair; consul reports empty values
// as nil.
func value(pair *api.KVPair) []byte {
	if pair.Value == nil {
		return []byte{}
	}
	return data.Clone(pair.Value)
}
