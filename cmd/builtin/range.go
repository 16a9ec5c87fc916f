package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/nskv/cmd"
	"github.com/mwantia/nskv/data"
)

type RangeCommand struct {
}

// Name returns the command identifier
func (*RangeCommand) Name() string {
	return "range"
}

// Description returns human-readable help text
func (*RangeCommand) Description() string {
	return "Print key=value lines for the keys in [start, end)"
}

// Usage returns a usage string for help
func (*RangeCommand) Usage() string {
	return "range [-n <namespace>...] [-x] [--start k] [--end k] [--reverse] [--limit n]"
}

// Execute runs the command with parsed arguments
// Returns exit code (0 = success) and error message
func (r *RangeCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := expectArgs(args, 0, r.Usage()); err != nil {
		return 2, err
	}

	asHex := args.Bool("hex")

	var start, end []byte
	var err error
	if args.Has("start") {
		if start, err = parseBytes(args.String("start"), asHex); err != nil {
			return 2, err
		}
	}
	if args.Has("end") {
		if end, err = parseBytes(args.String("end"), asHex); err != nil {
			return 2, err
		}
	}

	limit := args.Int("limit")
	if limit < 0 {
		return 2, fmt.Errorf("%w: limit must not be negative", cmd.ErrUsage)
	}

	order := data.Ascending
	if args.Bool("reverse") {
		order = data.Descending
	}

	store, release, err := readonlyView(ctx, api, args)
	if err != nil {
		return 1, err
	}
	defer release()

	iter, err := store.Range(ctx, start, end, order)
	if err != nil {
		return 1, err
	}
	defer iter.Close()

	var count int64
	for (limit == 0 || count < limit) && iter.Next() {
		fmt.Fprintf(writer, "%s=%s\n", formatBytes(iter.Key(), asHex), formatBytes(iter.Value(), asHex))
		count++
	}

	if err := iter.Err(); err != nil {
		return 1, err
	}
	return 0, nil
}

// GetFlags returns the flag set for this command
func (*RangeCommand) GetFlags() *cmd.CommandFlagSet {
	flags := namespaceFlags()
	flags["start"] = &cmd.CommandFlag{
		Name:        "start",
		Type:        "string",
		Description: "Inclusive lower bound",
	}
	flags["end"] = &cmd.CommandFlag{
		Name:        "end",
		Type:        "string",
		Description: "Exclusive upper bound",
	}
	flags["reverse"] = &cmd.CommandFlag{
		Name:        "reverse",
		Short:       "r",
		Type:        "bool",
		Description: "Iterate in descending order",
	}
	flags["limit"] = &cmd.CommandFlag{
		Name:        "limit",
		Short:       "l",
		Type:        "int",
		Description: "Print at most this many entries",
	}

	return &cmd.CommandFlagSet{Flags: flags}
}
