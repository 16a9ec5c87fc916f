package cmd

import (
	"errors"
	"reflect"
	"testing"
)

func testFlagSet() *CommandFlagSet {
	return &CommandFlagSet{
		Flags: map[string]*CommandFlag{
			"namespace": {Name: "namespace", Short: "n", Type: "stringSlice", Multiple: true},
			"hex":       {Name: "hex", Short: "x", Type: "bool"},
			"limit":     {Name: "limit", Short: "l", Type: "int", Default: int64(10)},
			"start":     {Name: "start", Type: "string"},
		},
	}
}

func TestParser_Flags(t *testing.T) {
	args, err := NewParser(testFlagSet()).Parse([]string{
		"-n", "balance", "--namespace=alice", "-x", "--limit", "3", "--start=a", "key",
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := args.StringSlice("namespace"); !reflect.DeepEqual(got, []string{"balance", "alice"}) {
		t.Errorf("Expected namespaces [balance alice], got %v", got)
	}
	if !args.Bool("hex") {
		t.Errorf("Expected hex to be set")
	}
	if args.Int("limit") != 3 {
		t.Errorf("Expected limit 3, got %d", args.Int("limit"))
	}
	if args.String("start") != "a" {
		t.Errorf("Expected start 'a', got %q", args.String("start"))
	}
	if !reflect.DeepEqual(args.Args, []string{"key"}) {
		t.Errorf("Expected positional [key], got %v", args.Args)
	}
}

func TestParser_Defaults(t *testing.T) {
	args, err := NewParser(testFlagSet()).Parse(nil)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if args.Int("limit") != 10 {
		t.Errorf("Expected default limit 10, got %d", args.Int("limit"))
	}
	if args.Has("start") || args.Bool("hex") || args.StringSlice("namespace") != nil {
		t.Errorf("Expected unset flags to be absent, got %v", args.Flags)
	}
}

func TestParser_ShortValueAttached(t *testing.T) {
	args, err := NewParser(testFlagSet()).Parse([]string{"-xnfoo", "-l5"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !args.Bool("hex") || args.Int("limit") != 5 {
		t.Errorf("Unexpected flags: %v", args.Flags)
	}
	if got := args.StringSlice("namespace"); !reflect.DeepEqual(got, []string{"foo"}) {
		t.Errorf("Expected namespaces [foo], got %v", got)
	}
}

func TestParser_Separator(t *testing.T) {
	args, err := NewParser(testFlagSet()).Parse([]string{"-x", "--", "-n", "--limit"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !reflect.DeepEqual(args.Args, []string{"-n", "--limit"}) {
		t.Errorf("Expected raw arguments after --, got %v", args.Args)
	}
}

func TestParser_StopAtPositional(t *testing.T) {
	parser := NewParser(&CommandFlagSet{
		Flags: map[string]*CommandFlag{
			"store": {Name: "store", Short: "s", Type: "string"},
		},
	})
	parser.StopAtPositional = true

	args, err := parser.Parse([]string{"-s", "memory://", "get", "-n", "foo", "key"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if args.String("store") != "memory://" {
		t.Errorf("Expected store memory://, got %q", args.String("store"))
	}
	if !reflect.DeepEqual(args.Args, []string{"get", "-n", "foo", "key"}) {
		t.Errorf("Expected subcommand arguments untouched, got %v", args.Args)
	}
}

func TestParser_Errors(t *testing.T) {
	required := &CommandFlagSet{
		Flags: map[string]*CommandFlag{
			"name": {Name: "name", Short: "N", Type: "string", Required: true},
		},
	}

	tests := map[string]struct {
		flags *CommandFlagSet
		raw   []string
	}{
		"unknown long":    {testFlagSet(), []string{"--nope"}},
		"unknown short":   {testFlagSet(), []string{"-q"}},
		"missing value":   {testFlagSet(), []string{"--start"}},
		"missing short":   {testFlagSet(), []string{"-n"}},
		"invalid int":     {testFlagSet(), []string{"--limit", "many"}},
		"missing require": {required, nil},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewParser(tt.flags).Parse(tt.raw)
			if !errors.Is(err, ErrUsage) {
				t.Errorf("Expected ErrUsage, got %v", err)
			}
		})
	}
}
