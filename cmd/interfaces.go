package cmd

import (
	"context"
	"io"

	"github.com/mwantia/nskv/backend"
)

// API is what commands operate on.
type API interface {
	// Store returns the configured backend, opening it on first use.
	// Commands that never touch a store do not call it.
	Store(ctx context.Context) (backend.StorageBackend, error)
}

// Command represents an executable command of the nskv tool.
type Command interface {
	// Name returns the command identifier
	Name() string

	// Description returns human-readable help text
	Description() string

	// Usage returns a usage string for help (e.g. "get -n balance [key]")
	Usage() string

	// Execute runs the command with parsed arguments
	// The writer parameter is where command output should be written
	// Returns exit code (0 = success) and error message
	Execute(ctx context.Context, api API, args *CommandArgs, writer io.Writer) (int, error)

	// GetFlags returns the flag set for this command (this is optional)
	GetFlags() *CommandFlagSet
}
