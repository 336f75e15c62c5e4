package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/kitchenctl/internal/chefclient"
	"github.com/danmuck/kitchenctl/internal/config"
	"github.com/danmuck/kitchenctl/internal/provision"
	"github.com/danmuck/kitchenctl/internal/sandbox"
	"github.com/danmuck/kitchenctl/internal/transport"
	"github.com/rs/zerolog/log"
)

// repositoryDirs are the chef repo directories copied into every sandbox.
var repositoryDirs = []string{
	"cookbooks",
	"site-cookbooks",
	"roles",
	"data_bags",
	"environments",
	"nodes",
	"clients",
	"users",
}

// channelFor is swapped in tests.
var channelFor = newChannel

// loadSuite reads the suite file and resolves its relative paths against the
// file's directory.
func loadSuite(path string) (config.Suite, error) {
	suite, err := config.LoadSuite(path)
	if err != nil {
		return config.Suite{}, err
	}
	base := filepath.Dir(path)
	suite.Repository = resolvePath(base, suite.Repository)
	suite.SandboxDir = resolvePath(base, suite.SandboxDir)
	suite.MetricsFile = resolvePath(base, suite.MetricsFile)
	return suite, nil
}

func resolvePath(base, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	path = expandHome(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func selectTargets(targets []config.Target, only []string) ([]config.Target, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets configured")
	}
	if len(only) == 0 {
		return targets, nil
	}
	byName := make(map[string]config.Target, len(targets))
	for _, target := range targets {
		byName[target.Name] = target
	}
	out := make([]config.Target, 0, len(only))
	for _, name := range only {
		target, ok := byName[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown target %q", name)
		}
		out = append(out, target)
	}
	return out, nil
}

// workspace is one target's sandbox plus its decoded provisioner config.
type workspace struct {
	target  config.Target
	cfg     chefclient.Config
	sandbox *sandbox.Sandbox
}

func stageTarget(suite config.Suite, target config.Target) (*workspace, error) {
	cfg, err := chefclient.Decode(suite.ProvisionerFor(target))
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", target.Name, err)
	}
	sb, err := sandbox.New(suite.SandboxDir, target.Name)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", target.Name, err)
	}
	if err := importRepository(sb, suite.Repository); err != nil {
		_ = sb.Cleanup()
		return nil, fmt.Errorf("target %q: %w", target.Name, err)
	}
	return &workspace{target: target, cfg: cfg, sandbox: sb}, nil
}

func importRepository(sb *sandbox.Sandbox, repo string) error {
	if repo == "" {
		return nil
	}
	for _, dir := range repositoryDirs {
		src := filepath.Join(repo, dir)
		info, err := os.Stat(src)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			continue
		}
		if err := sb.Import(src, dir); err != nil {
			return err
		}
	}
	return nil
}

func (w *workspace) job(handoff provision.Handoff) provision.Job {
	return provision.Job{
		Instance: w.target.Name,
		Sandbox:  w.sandbox,
		Config:   w.cfg,
		Handoff:  handoff,
	}
}

func (w *workspace) release(keep bool) {
	if keep {
		log.Info().Str("instance", w.target.Name).Str("path", w.sandbox.Path()).Msg("keeping sandbox")
		return
	}
	if err := w.sandbox.Cleanup(); err != nil {
		log.Warn().Err(err).Str("instance", w.target.Name).Msg("sandbox cleanup failed")
	}
}

func newChannel(target config.Target) (transport.Channel, error) {
	switch strings.ToLower(strings.TrimSpace(target.Transport)) {
	case config.TransportLocal, "":
		return transport.Local{}, nil
	case config.TransportSSH:
		timeout, err := target.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		return transport.SSH{
			Host:                        target.Host,
			Port:                        target.Port,
			User:                        target.User,
			KeyPath:                     expandHome(target.KeyPath),
			Passphrase:                  []byte(os.Getenv("KITCHENCTL_SSH_PASSPHRASE")),
			KnownHostsPath:              expandHome(target.KnownHostsPath),
			InsecureSkipHostKeyChecking: target.InsecureSkipHostKeyChecking,
			Timeout:                     timeout,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", transport.ErrUnsupportedTransport, target.Transport)
	}
}
