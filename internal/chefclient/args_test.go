package chefclient

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestBuildRunArgsEndToEnd(t *testing.T) {
	cfg := mustDecode(t, map[string]any{
		"root_path":       "/tmp/kitchen",
		"log_level":       "info",
		"json_attributes": true,
	})
	got, err := BuildRunArgs("client.rb", cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := []string{
		"--config /tmp/kitchen/client.rb",
		"--log_level info",
		"--force-formatter",
		"--no-color",
		"--json-attributes /tmp/kitchen/dna.json",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected args:\n got %q\nwant %q", got, want)
	}
}

func TestBuildRunArgsJSONAttributesPredicate(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		want bool
	}{
		{name: "unset", raw: map[string]any{"log_level": "info"}, want: true},
		{name: "true", raw: map[string]any{"log_level": "info", "json_attributes": true}, want: true},
		{name: "false", raw: map[string]any{"log_level": "info", "json_attributes": false}, want: false},
	}
	for _, tc := range cases {
		args, err := BuildRunArgs("client.rb", mustDecode(t, tc.raw))
		if err != nil {
			t.Fatalf("%s: build: %v", tc.name, err)
		}
		if got := countPrefix(args, "--json-attributes "); (got == 1) != tc.want || got > 1 {
			t.Fatalf("%s: json-attributes count=%d want present=%v", tc.name, got, tc.want)
		}
	}
}

func TestBuildRunArgsLogFile(t *testing.T) {
	args, err := BuildRunArgs("client.rb", mustDecode(t, map[string]any{"log_level": "info"}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if countPrefix(args, "--logfile") != 0 {
		t.Fatalf("unexpected logfile token: %q", args)
	}

	args, err = BuildRunArgs("client.rb", mustDecode(t, map[string]any{
		"log_level": "info",
		"log_file":  "/var/log/chef/client.log",
	}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if countPrefix(args, "--logfile") != 1 {
		t.Fatalf("expected exactly one logfile token: %q", args)
	}
	if args[len(args)-1] != "--logfile /var/log/chef/client.log" {
		t.Fatalf("unexpected logfile token: %q", args[len(args)-1])
	}
}

func TestBuildRunArgsOptionalOrder(t *testing.T) {
	cfg := mustDecode(t, map[string]any{
		"log_level":    "warn",
		"log_file":     "/tmp/chef.log",
		"profile_ruby": true,
	})
	args, err := BuildRunArgs("client.rb", cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tail := args[4:]
	want := []string{"--json-attributes /tmp/kitchen/dna.json", "--logfile /tmp/chef.log", "--profile-ruby"}
	if !reflect.DeepEqual(tail, want) {
		t.Fatalf("unexpected optional tail: %q", tail)
	}
}

func TestBuildRunArgsDeterministic(t *testing.T) {
	cfg := mustDecode(t, map[string]any{
		"log_level":    "info",
		"log_file":     "/tmp/chef.log",
		"profile_ruby": true,
	})
	first, err := BuildRunArgs("client.rb", cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	for i := 0; i < 50; i++ {
		next, err := BuildRunArgs("client.rb", cfg)
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		if strings.Join(next, "\x00") != strings.Join(first, "\x00") {
			t.Fatalf("run %d differs: %q vs %q", i, next, first)
		}
	}
}

func TestBuildRunArgsRequiresLogLevel(t *testing.T) {
	if _, err := BuildRunArgs("client.rb", mustDecode(t, map[string]any{})); !errors.Is(err, ErrCommandAssembly) {
		t.Fatalf("expected ErrCommandAssembly, got %v", err)
	}
	if _, err := BuildRunArgs("", mustDecode(t, map[string]any{"log_level": "info"})); !errors.Is(err, ErrCommandAssembly) {
		t.Fatalf("expected ErrCommandAssembly for empty filename, got %v", err)
	}
}

func TestBuildRunArgsQuotesPaths(t *testing.T) {
	cfg := mustDecode(t, map[string]any{"root_path": "/tmp/my kitchen", "log_level": "info"})
	args, err := BuildRunArgs("client.rb", cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if args[0] != "--config '/tmp/my kitchen/client.rb'" {
		t.Fatalf("unexpected config token: %q", args[0])
	}
}

func TestBuildRunArgsQuotesLogLevel(t *testing.T) {
	cfg := mustDecode(t, map[string]any{"log_level": "info; touch /tmp/owned"})
	args, err := BuildRunArgs("client.rb", cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if args[1] != "--log_level 'info; touch /tmp/owned'" {
		t.Fatalf("log level not quoted: %q", args[1])
	}

	plain := mustDecode(t, map[string]any{"log_level": "debug"})
	args, err = BuildRunArgs("client.rb", plain)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if args[1] != "--log_level debug" {
		t.Fatalf("simple level should stay bare: %q", args[1])
	}
}

func TestBuildRunArgsWindows(t *testing.T) {
	cfg := mustDecode(t, map[string]any{"os_type": "windows", "log_level": "info"})
	args, err := BuildRunArgs("client.rb", cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if args[0] != `--config $env:TEMP\kitchen\client.rb` {
		t.Fatalf("unexpected config token: %q", args[0])
	}
	if args[4] != `--json-attributes $env:TEMP\kitchen\dna.json` {
		t.Fatalf("unexpected attributes token: %q", args[4])
	}
}

func countPrefix(args []string, prefix string) int {
	n := 0
	for _, arg := range args {
		if strings.HasPrefix(arg, prefix) {
			n++
		}
	}
	return n
}
