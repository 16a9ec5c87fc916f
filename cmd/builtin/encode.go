package builtin

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/mwantia/nskv/cmd"
	"github.com/mwantia/nskv/data"
	"github.com/mwantia/nskv/lengthprefix"
)

type EncodeCommand struct {
}

// Name returns the command identifier
func (*EncodeCommand) Name() string {
	return "encode"
}

// Description returns human-readable help text
func (*EncodeCommand) Description() string {
	return "Print the physical key prefix of one or more nested namespaces"
}

// Usage returns a usage string for help
func (*EncodeCommand) Usage() string {
	return "encode -n <namespace> [-n <namespace>...] [key]"
}

// Execute runs the command with parsed arguments
// Returns exit code (0 = success) and error message
func (e *EncodeCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	ns, err := namespaces(args)
	if err != nil {
		return 2, err
	}
	if len(ns) == 0 {
		return 2, fmt.Errorf("%w: %v", cmd.ErrUsage, data.ErrNoNamespace)
	}
	if len(args.Args) > 1 {
		return 2, fmt.Errorf("%w: %s", cmd.ErrUsage, e.Usage())
	}

	encoded := lengthprefix.EncodeNested(ns...)
	// An optional key yields the full physical key
	if len(args.Args) == 1 {
		key, err := parseBytes(args.Args[0], args.Bool("hex"))
		if err != nil {
			return 2, err
		}
		encoded = append(encoded, key...)
	}

	fmt.Fprintln(writer, hex.EncodeToString(encoded))
	return 0, nil
}

// GetFlags returns the flag set for this command
func (*EncodeCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{Flags: namespaceFlags()}
}
