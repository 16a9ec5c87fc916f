package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRun_SqliteRoundTrip(t *testing.T) {
	address := "sqlite://" + t.TempDir() + "/nskv.db"

	var stdout, stderr bytes.Buffer
	if code := run(t.Context(), []string{"-s", address, "set", "-n", "balance", "alice", "100"}, &stdout, &stderr); code != 0 {
		t.Fatalf("set failed with %d: %s", code, stderr.String())
	}

	// A fresh run reopens the same file
	stdout.Reset()
	if code := run(t.Context(), []string{"--store", address, "get", "-n", "balance", "alice"}, &stdout, &stderr); code != 0 {
		t.Fatalf("get failed with %d: %s", code, stderr.String())
	}
	if stdout.String() != "100\n" {
		t.Errorf("Expected '100', got %q", stdout.String())
	}
}

func TestRun_EnvStore(t *testing.T) {
	t.Setenv("NSKV_STORE", "memory://")

	var stdout, stderr bytes.Buffer
	code := run(t.Context(), []string{"get", "missing"}, &stdout, &stderr)
	if code != 1 {
		t.Errorf("Expected exit 1 for a missing key, got %d", code)
	}
	if !strings.Contains(stderr.String(), "not found") {
		t.Errorf("Expected not found message, got %q", stderr.String())
	}
}

func TestRun_ExitCodes(t *testing.T) {
	tests := map[string]struct {
		args []string
		code int
	}{
		"help":            {[]string{"--help"}, 0},
		"no command":      {nil, 2},
		"unknown command": {[]string{"-s", "memory://", "nope"}, 2},
		"unknown flag":    {[]string{"--nope"}, 2},
		"bad log level":   {[]string{"--log-level", "loud", "get", "k"}, 2},
		"bad address":     {[]string{"-s", "nowhere", "get", "k"}, 1},
		"encode":          {[]string{"encode", "-n", "foo"}, 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(t.Context(), tt.args, &stdout, &stderr); code != tt.code {
				t.Errorf("Expected exit %d, got %d (%s)", tt.code, code, stderr.String())
			}
		})
	}
}
