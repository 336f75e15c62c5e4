package chefclient

import (
	"fmt"
	"strings"

	"github.com/danmuck/kitchenctl/internal/remote"
)

// optionalFlag renders at most one token when its configuration predicate holds.
type optionalFlag struct {
	name   string
	render func(Config) (string, bool)
}

// Declaration order is the emission order.
var optionalRunFlags = []optionalFlag{
	{
		name: "json_attributes",
		render: func(cfg Config) (string, bool) {
			if !cfg.JSONAttributes {
				return "", false
			}
			return "--json-attributes " + remote.Quote(cfg.Family(), cfg.RemotePath(AttributesFilename)), true
		},
	},
	{
		name: "log_file",
		render: func(cfg Config) (string, bool) {
			if strings.TrimSpace(cfg.LogFile) == "" {
				return "", false
			}
			return "--logfile " + remote.Quote(cfg.Family(), cfg.LogFile), true
		},
	},
	{
		name: "profile_ruby",
		render: func(cfg Config) (string, bool) {
			return "--profile-ruby", cfg.ProfileRuby
		},
	},
}

// BuildRunArgs composes the chef-client arguments: the fixed tokens first,
// then each optional flag whose predicate holds, in table order.
func BuildRunArgs(configFilename string, cfg Config) ([]string, error) {
	if strings.TrimSpace(configFilename) == "" {
		return nil, fmt.Errorf("%w: config file name is required", ErrCommandAssembly)
	}
	if strings.TrimSpace(cfg.RootPath) == "" {
		return nil, fmt.Errorf("%w: root_path is required", ErrCommandAssembly)
	}
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		return nil, fmt.Errorf("%w: log_level is required", ErrCommandAssembly)
	}

	family := cfg.Family()
	fixed := []string{
		"--config " + remote.Quote(family, cfg.RemotePath(configFilename)),
		"--log_level " + remote.Quote(family, level),
		"--force-formatter",
		"--no-color",
	}
	return foldFlags(fixed, cfg, optionalRunFlags), nil
}

func foldFlags(base []string, cfg Config, flags []optionalFlag) []string {
	out := make([]string, len(base), len(base)+len(flags))
	copy(out, base)
	for _, flag := range flags {
		if token, ok := flag.render(cfg); ok {
			out = append(out, token)
		}
	}
	return out
}
