package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/kitchenctl/internal/config"
	"github.com/danmuck/kitchenctl/internal/testutil/testlog"
	"github.com/danmuck/kitchenctl/internal/transport"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeSuite(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "kitchen.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write suite: %v", err)
	}
	return path
}

type fakeChannel struct {
	mu        sync.Mutex
	commands  []string
	transfers []string
	failOn    string
}

func (f *fakeChannel) Name() string {
	return "fake"
}

func (f *fakeChannel) Transfer(_ context.Context, src transport.Source, rootPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transfers = append(f.transfers, rootPath)
	if _, err := os.Stat(filepath.Join(src.Path(), "client.rb")); err != nil {
		return err
	}
	return nil
}

func (f *fakeChannel) Run(_ context.Context, command string) (transport.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	if f.failOn != "" && strings.Contains(command, f.failOn) {
		return transport.Result{ExitCode: 1, Stderr: []byte("boom"), Duration: time.Millisecond}, nil
	}
	return transport.Result{Duration: time.Millisecond}, nil
}

func useFakeChannel(t *testing.T, fake *fakeChannel) {
	t.Helper()
	prev := channelFor
	channelFor = func(config.Target) (transport.Channel, error) {
		return fake, nil
	}
	t.Cleanup(func() { channelFor = prev })
}

func TestInitThenValidate(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "kitchen.toml")

	out, err := execute(t, "init", "--config", path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "wrote "+path) {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := execute(t, "init", "--config", path); err == nil {
		t.Fatalf("expected init to refuse overwrite")
	}
	if _, err := execute(t, "init", "--config", path, "--force"); err != nil {
		t.Fatalf("init --force: %v", err)
	}

	out, err = execute(t, "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "kitchen: 2 target(s) ok") {
		t.Fatalf("unexpected validate output: %q", out)
	}
}

func TestInitYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	if _, err := execute(t, "init", "--config", path, "--format", "yml"); err != nil {
		t.Fatalf("init yaml: %v", err)
	}
	if _, err := execute(t, "validate", "--config", path); err != nil {
		t.Fatalf("validate yaml: %v", err)
	}
	if _, err := execute(t, "init", "--format", "json"); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
}

func TestValidateReportsTargetConfigErrors(t *testing.T) {
	path := writeSuite(t, `
[provisioner]
bogus_key = 1

[[targets]]
name = "a"
`)
	_, err := execute(t, "validate", "--config", path)
	if err == nil || !strings.Contains(err.Error(), `target "a"`) {
		t.Fatalf("expected target error, got %v", err)
	}
}

func TestPlanPrintsCommandsAndCleansSandbox(t *testing.T) {
	testlog.Start(t)
	path := writeSuite(t, `
repository = "repo"
sandbox_dir = "sandboxes"

[provisioner]
log_level = "info"
root_path = "/tmp/kitchen-local"
sudo = false

[[targets]]
name = "local-dev"

[[targets]]
name = "other"
`)
	base := filepath.Dir(path)
	if err := os.MkdirAll(filepath.Join(base, "repo", "cookbooks", "app"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(base, "repo", "cookbooks", "app", "metadata.rb"), []byte("name 'app'\n"), 0o644); err != nil {
		t.Fatalf("write cookbook: %v", err)
	}

	out, err := execute(t, "plan", "--config", path, "--target", "local-dev")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, want := range []string{
		"== local-dev",
		"  + client.rb",
		"  + dna.json",
		"prepare: sh -c 'cd /tmp/kitchen-local && knife upload * --config /tmp/kitchen-local/client.rb'",
		"run:     /opt/chef/bin/chef-client --config /tmp/kitchen-local/client.rb --log_level info --force-formatter --no-color --json-attributes /tmp/kitchen-local/dna.json",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("plan output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "== other") {
		t.Fatalf("target filter ignored:\n%s", out)
	}

	entries, err := os.ReadDir(filepath.Join(base, "sandboxes"))
	if err != nil {
		t.Fatalf("read sandbox dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected sandbox cleanup, found %d entries", len(entries))
	}
}

func TestPlanUnknownTarget(t *testing.T) {
	path := writeSuite(t, "[[targets]]\nname = \"a\"\n")
	if _, err := execute(t, "plan", "--config", path, "-t", "nope"); err == nil || !strings.Contains(err.Error(), "unknown target") {
		t.Fatalf("expected unknown target error, got %v", err)
	}
}

func TestConvergeRunsEveryTarget(t *testing.T) {
	testlog.Start(t)
	fake := &fakeChannel{}
	useFakeChannel(t, fake)

	path := writeSuite(t, `
sandbox_dir = "sandboxes"
metrics_file = "metrics.prom"
parallelism = 2

[provisioner]
log_level = "warn"

[[targets]]
name = "a"

[[targets]]
name = "b"
[targets.provisioner]
root_path = "/srv/kitchen"
`)
	out, err := execute(t, "converge", "--config", path)
	if err != nil {
		t.Fatalf("converge: %v", err)
	}
	if strings.Count(out, "[handed_off] ok") != 2 {
		t.Fatalf("unexpected converge output:\n%s", out)
	}
	if len(fake.commands) != 4 || len(fake.transfers) != 2 {
		t.Fatalf("unexpected calls: commands=%d transfers=%v", len(fake.commands), fake.transfers)
	}
	sawCustomRoot := false
	for _, root := range fake.transfers {
		if root == "/srv/kitchen" {
			sawCustomRoot = true
		}
	}
	if !sawCustomRoot {
		t.Fatalf("per-target root_path not used: %v", fake.transfers)
	}
	for _, command := range fake.commands {
		if !strings.HasPrefix(command, "sudo -E ") {
			t.Fatalf("expected elevated command, got %q", command)
		}
	}

	body, err := os.ReadFile(filepath.Join(filepath.Dir(path), "metrics.prom"))
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(body), "kitchenctl_provision_runs_total") {
		t.Fatalf("metrics textfile missing provision runs")
	}
}

func TestConvergeReportsCommandFailure(t *testing.T) {
	testlog.Start(t)
	fake := &fakeChannel{failOn: "chef-client"}
	useFakeChannel(t, fake)

	path := writeSuite(t, `
sandbox_dir = "sandboxes"

[provisioner]
log_level = "info"

[[targets]]
name = "a"
`)
	out, err := execute(t, "converge", "--config", path)
	if !errors.Is(err, transport.ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
	if !strings.Contains(out, "a [run_command_ready] failed") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestNewChannel(t *testing.T) {
	local, err := newChannel(config.Target{Name: "a", Transport: "local"})
	if err != nil || local.Name() != "local" {
		t.Fatalf("unexpected local channel: %v %v", local, err)
	}

	remote, err := newChannel(config.Target{Name: "b", Transport: "ssh", Host: "h", User: "u", KeyPath: "k", Timeout: "5s"})
	if err != nil {
		t.Fatalf("ssh channel: %v", err)
	}
	ssh, ok := remote.(transport.SSH)
	if !ok || ssh.Timeout != 5*time.Second {
		t.Fatalf("unexpected ssh channel: %#v", remote)
	}

	if _, err := newChannel(config.Target{Transport: "winrm"}); !errors.Is(err, transport.ErrUnsupportedTransport) {
		t.Fatalf("expected ErrUnsupportedTransport, got %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := expandHome("~/.ssh/id"); got != filepath.Join(home, ".ssh", "id") {
		t.Fatalf("unexpected expansion: %q", got)
	}
	if got := expandHome("/abs/~/x"); got != "/abs/~/x" {
		t.Fatalf("unexpected expansion: %q", got)
	}
}
