package builtin

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/mwantia/nskv"
	"github.com/mwantia/nskv/backend"
	"github.com/mwantia/nskv/cmd"
)

// Commands returns every builtin command.
func Commands() []cmd.Command {
	return []cmd.Command{
		&EncodeCommand{},
		&DecodeCommand{},
		&GetCommand{},
		&SetCommand{},
		&RmCommand{},
		&RangeCommand{},
	}
}

// namespaceFlags returns the flags shared by every command working inside
// a namespace.
func namespaceFlags() map[string]*cmd.CommandFlag {
	return map[string]*cmd.CommandFlag{
		"namespace": {
			Name:        "namespace",
			Short:       "n",
			Type:        "stringSlice",
			Multiple:    true,
			Description: "Namespace to work in; repeat for nested namespaces",
		},
		"hex": {
			Name:        "hex",
			Short:       "x",
			Type:        "bool",
			Description: "Read and print namespaces, keys and values as hex",
		},
	}
}

// parseBytes turns a command line value into bytes, decoding hex if asked.
func parseBytes(value string, asHex bool) ([]byte, error) {
	if !asHex {
		return []byte(value), nil
	}

	raw, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex '%s'", cmd.ErrUsage, value)
	}
	return raw, nil
}

func formatBytes(value []byte, asHex bool) string {
	if asHex {
		return hex.EncodeToString(value)
	}
	return string(value)
}

func namespaces(args *cmd.CommandArgs) ([][]byte, error) {
	var result [][]byte
	for _, ns := range args.StringSlice("namespace") {
		raw, err := parseBytes(ns, args.Bool("hex"))
		if err != nil {
			return nil, err
		}
		result = append(result, raw)
	}
	return result, nil
}

// view opens the store below the namespaces given on the command line.
// Without namespaces the store itself is used.
func view(ctx context.Context, api cmd.API, args *cmd.CommandArgs) (backend.IterableStorage, func(), error) {
	ns, err := namespaces(args)
	if err != nil {
		return nil, nil, err
	}

	store, err := api.Store(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(ns) == 0 {
		return store, func() {}, nil
	}

	prefixed, err := nskv.Multilevel(store, ns...)
	if err != nil {
		return nil, nil, err
	}
	return prefixed, prefixed.Release, nil
}

// readonlyView is view for commands that never write.
func readonlyView(ctx context.Context, api cmd.API, args *cmd.CommandArgs) (backend.ReadonlyIterableStorage, func(), error) {
	ns, err := namespaces(args)
	if err != nil {
		return nil, nil, err
	}

	store, err := api.Store(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(ns) == 0 {
		return store, func() {}, nil
	}

	prefixed, err := nskv.MultilevelReadonly(store, ns...)
	if err != nil {
		return nil, nil, err
	}
	return prefixed, prefixed.Release, nil
}

func expectArgs(args *cmd.CommandArgs, n int, usage string) error {
	if len(args.Args) != n {
		return fmt.Errorf("%w: expected %d argument(s): %s", cmd.ErrUsage, n, usage)
	}
	return nil
}
