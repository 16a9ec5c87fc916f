package backend

import (
	"fmt"
	"strings"

	"github.com/mwantia/nskv/log"
)

// Options holds settings shared by all store implementations.
type Options struct {
	Logger *log.Logger
	// Table names the SQL table (sqlite, postgres) holding the entries.
	Table string
	// Base is the key or object prefix used by consul and s3.
	Base string
}

type Option func(*Options) error

func NewDefaultOptions() *Options {
	return &Options{
		Logger: log.Discard(),
		Table:  "nskv_kv",
	}
}

// ApplyOptions returns the defaults with opts applied in order.
func ApplyOptions(opts ...Option) (*Options, error) {
	options := NewDefaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

func WithLogger(logger *log.Logger) Option {
	return func(opts *Options) error {
		if logger != nil {
			opts.Logger = logger
		}
		return nil
	}
}

func WithTable(table string) Option {
	return func(opts *Options) error {
		if !validIdentifier(table) {
			return fmt.Errorf("backend: invalid table name '%s'", table)
		}
		opts.Table = table
		return nil
	}
}

func WithBase(base string) Option {
	return func(opts *Options) error {
		opts.Base = strings.Trim(base, "/")
		return nil
	}
}

func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
