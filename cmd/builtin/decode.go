package builtin

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/mwantia/nskv/cmd"
	"github.com/mwantia/nskv/lengthprefix"
)

type DecodeCommand struct {
}

// Name returns the command identifier
func (*DecodeCommand) Name() string {
	return "decode"
}

// Description returns human-readable help text
func (*DecodeCommand) Description() string {
	return "Split a hex physical key into its namespaces and logical key"
}

// Usage returns a usage string for help
func (*DecodeCommand) Usage() string {
	return "decode [--depth N] [--hex] <hexkey>"
}

// Execute runs the command with parsed arguments
// Returns exit code (0 = success) and error message
func (d *DecodeCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := expectArgs(args, 1, d.Usage()); err != nil {
		return 2, err
	}

	key, err := hex.DecodeString(args.Args[0])
	if err != nil {
		return 2, fmt.Errorf("%w: invalid hex key '%s'", cmd.ErrUsage, args.Args[0])
	}

	depth := int(args.Int("depth"))
	if depth < 1 {
		return 2, fmt.Errorf("%w: depth must be at least 1", cmd.ErrUsage)
	}

	segments, logical, err := lengthprefix.Decode(key, depth)
	if err != nil {
		return 1, err
	}

	asHex := args.Bool("hex")
	for i, ns := range segments {
		fmt.Fprintf(writer, "namespace[%d]=%s\n", i, formatBytes(ns, asHex))
	}
	fmt.Fprintf(writer, "key=%s\n", formatBytes(logical, asHex))
	return 0, nil
}

// GetFlags returns the flag set for this command
func (*DecodeCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"depth": {
				Name:        "depth",
				Short:       "d",
				Type:        "int",
				Default:     int64(1),
				Description: "Number of namespace segments in the key",
			},
			"hex": {
				Name:        "hex",
				Short:       "x",
				Type:        "bool",
				Description: "Print namespaces and key as hex",
			},
		},
	}
}
