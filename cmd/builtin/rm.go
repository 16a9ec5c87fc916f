package builtin

import (
	"context"
	"io"

	"github.com/mwantia/nskv/cmd"
)

type RmCommand struct {
}

// Name returns the command identifier
func (*RmCommand) Name() string {
	return "rm"
}

// Description returns human-readable help text
func (*RmCommand) Description() string {
	return "Remove a key; removing a missing key succeeds"
}

// Usage returns a usage string for help
func (*RmCommand) Usage() string {
	return "rm [-n <namespace>...] [-x] <key>"
}

// Execute runs the command with parsed arguments
// Returns exit code (0 = success) and error message
func (r *RmCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := expectArgs(args, 1, r.Usage()); err != nil {
		return 2, err
	}

	key, err := parseBytes(args.Args[0], args.Bool("hex"))
	if err != nil {
		return 2, err
	}

	store, release, err := view(ctx, api, args)
	if err != nil {
		return 1, err
	}
	defer release()

	if err := store.Remove(ctx, key); err != nil {
		return 1, err
	}
	return 0, nil
}

// GetFlags returns the flag set for this command
func (*RmCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{Flags: namespaceFlags()}
}
