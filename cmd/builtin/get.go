package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/nskv/cmd"
	"github.com/mwantia/nskv/data"
)

type GetCommand struct {
}

// Name returns the command identifier
func (*GetCommand) Name() string {
	return "get"
}

// Description returns human-readable help text
func (*GetCommand) Description() string {
	return "Print the value stored at a key"
}

// Usage returns a usage string for help
func (*GetCommand) Usage() string {
	return "get [-n <namespace>...] [-x] <key>"
}

// Execute runs the command with parsed arguments
// Returns exit code (0 = success) and error message
func (g *GetCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := expectArgs(args, 1, g.Usage()); err != nil {
		return 2, err
	}

	asHex := args.Bool("hex")
	key, err := parseBytes(args.Args[0], asHex)
	if err != nil {
		return 2, err
	}

	store, release, err := readonlyView(ctx, api, args)
	if err != nil {
		return 1, err
	}
	defer release()

	value, found, err := store.Get(ctx, key)
	if err != nil {
		return 1, err
	}
	if !found {
		return 1, fmt.Errorf("%w: %s", data.ErrNotFound, args.Args[0])
	}

	fmt.Fprintln(writer, formatBytes(value, asHex))
	return 0, nil
}

// GetFlags returns the flag set for this command
func (*GetCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{Flags: namespaceFlags()}
}
