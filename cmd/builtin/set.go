package builtin

import (
	"context"
	"io"

	"github.com/mwantia/nskv/cmd"
)

type SetCommand struct {
}

// Name returns the command identifier
func (*SetCommand) Name() string {
	return "set"
}

// Description returns human-readable help text
func (*SetCommand) Description() string {
	return "Store a value at a key, overwriting any previous value"
}

// Usage returns a usage string for help
func (*SetCommand) Usage() string {
	return "set [-n <namespace>...] [-x] <key> <value>"
}

// Execute runs the command with parsed arguments
// Returns exit code (0 = success) and error message
func (s *SetCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := expectArgs(args, 2, s.Usage()); err != nil {
		return 2, err
	}

	asHex := args.Bool("hex")
	key, err := parseBytes(args.Args[0], asHex)
	if err != nil {
		return 2, err
	}
	value, err := parseBytes(args.Args[1], asHex)
	if err != nil {
		return 2, err
	}

	store, release, err := view(ctx, api, args)
	if err != nil {
		return 1, err
	}
	defer release()

	if err := store.Set(ctx, key, value); err != nil {
		return 1, err
	}
	return 0, nil
}

// GetFlags returns the flag set for this command
func (*SetCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{Flags: namespaceFlags()}
}
