// Package typed stores JSON encoded Go values in a namespace of a flat
// store. A Bucket holds many values keyed below one namespace; a Singleton
// holds exactly one value at a fixed key.
package typed

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/mwantia/nskv/data"
)

func encode[T any](value T) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", value, err)
	}
	return raw, nil
}

func decode[T any](raw []byte) (T, error) {
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, fmt.Errorf("failed to decode %T: %w", value, err)
	}
	return value, nil
}

func notFound(key []byte) error {
	return fmt.Errorf("%w: %x", data.ErrNotFound, key)
}
