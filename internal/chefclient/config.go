package chefclient

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danmuck/kitchenctl/internal/remote"
	"github.com/go-viper/mapstructure/v2"
)

const (
	DefaultRootPath           = "/tmp/kitchen"
	DefaultWindowsRootPath    = `$env:TEMP\kitchen`
	DefaultOmnibusRoot        = "/opt/chef"
	DefaultWindowsOmnibusRoot = `$env:systemdrive\opscode\chef`
	DefaultConfigFilename     = "client.rb"
	DefaultChefServerURL      = "http://127.0.0.1:8889"
	DefaultSudoCommand        = "sudo -E"

	ChefClientBinary   = "chef-client"
	ValidationPEM      = "validation.pem"
	ClientPEM          = "client.pem"
	AttributesFilename = "dna.json"
)

// Config is the decoded chef-client provisioner configuration.
type Config struct {
	RootPath        string         `mapstructure:"root_path"`
	OSType          string         `mapstructure:"os_type"`
	ChefOmnibusRoot string         `mapstructure:"chef_omnibus_root"`
	ChefClientPath  string         `mapstructure:"chef_client_path"`
	ClientRB        map[string]any `mapstructure:"client_rb"`
	ConfigFilename  string         `mapstructure:"client_rb_filename"`
	NamedRunList    map[string]any `mapstructure:"named_run_list"`
	JSONAttributes  bool           `mapstructure:"json_attributes"`
	LogLevel        string         `mapstructure:"log_level"`
	LogFile         string         `mapstructure:"log_file"`
	ProfileRuby     bool           `mapstructure:"profile_ruby"`
	NodeName        string         `mapstructure:"node_name"`
	ChefServerURL   string         `mapstructure:"chef_server_url"`
	RunList         []string       `mapstructure:"run_list"`
	Attributes      map[string]any `mapstructure:"attributes"`
	Sudo            bool           `mapstructure:"sudo"`
	SudoCommand     string         `mapstructure:"sudo_command"`
	CommandPrefix   string         `mapstructure:"command_prefix"`
}

// DefaultConfig returns the platform-independent defaults. Platform-dependent
// values stay empty until ResolveDefaults runs.
func DefaultConfig() Config {
	return Config{
		ClientRB:       map[string]any{},
		ConfigFilename: DefaultConfigFilename,
		NamedRunList:   map[string]any{},
		JSONAttributes: true,
		ChefServerURL:  DefaultChefServerURL,
		RunList:        []string{},
		Attributes:     map[string]any{},
		Sudo:           true,
		SudoCommand:    DefaultSudoCommand,
	}
}

// Decode builds a Config from a raw key/value map. Unknown keys are rejected.
func Decode(raw map[string]any) (Config, error) {
	cfg := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &cfg,
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg = ResolveDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ResolveDefaults fills computed values that depend on other keys.
func ResolveDefaults(cfg Config) Config {
	if strings.TrimSpace(cfg.RootPath) == "" {
		cfg.RootPath = DefaultRootPathFor(cfg)
	}
	if strings.TrimSpace(cfg.ChefOmnibusRoot) == "" {
		cfg.ChefOmnibusRoot = DefaultOmnibusRootFor(cfg)
	}
	if strings.TrimSpace(cfg.ChefClientPath) == "" {
		cfg.ChefClientPath = DefaultChefClientPath(cfg)
	}
	if cfg.ClientRB == nil {
		cfg.ClientRB = map[string]any{}
	}
	if cfg.NamedRunList == nil {
		cfg.NamedRunList = map[string]any{}
	}
	if cfg.Attributes == nil {
		cfg.Attributes = map[string]any{}
	}
	if cfg.RunList == nil {
		cfg.RunList = []string{}
	}
	return cfg
}

// DefaultRootPathFor returns the remote staging root for the target family.
func DefaultRootPathFor(cfg Config) string {
	if cfg.Family().IsWindows() {
		return DefaultWindowsRootPath
	}
	return DefaultRootPath
}

// DefaultOmnibusRootFor returns the omnibus install root for the target family.
func DefaultOmnibusRootFor(cfg Config) string {
	if cfg.Family().IsWindows() {
		return DefaultWindowsOmnibusRoot
	}
	return DefaultOmnibusRoot
}

// DefaultChefClientPath resolves <chef_omnibus_root>/bin/chef-client, with a
// .bat suffix on windows-family targets.
func DefaultChefClientPath(cfg Config) string {
	family := cfg.Family()
	root := cfg.ChefOmnibusRoot
	if strings.TrimSpace(root) == "" {
		root = DefaultOmnibusRootFor(cfg)
	}
	path := remote.PathJoin(family, root, "bin", ChefClientBinary)
	if family.IsWindows() {
		path += ".bat"
	}
	return path
}

// Validate checks values that would otherwise surface as broken sandbox files.
func Validate(cfg Config) error {
	name := strings.TrimSpace(cfg.ConfigFilename)
	if name == "" {
		return fmt.Errorf("%w: client_rb_filename is required", ErrInvalidConfig)
	}
	if name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: client_rb_filename=%q must be a plain file name", ErrInvalidConfig, cfg.ConfigFilename)
	}
	if strings.TrimSpace(cfg.RootPath) == "" {
		return fmt.Errorf("%w: root_path is required", ErrInvalidConfig)
	}
	return nil
}

// Family returns the target family selected by os_type.
func (c Config) Family() remote.Family {
	return remote.ParseFamily(c.OSType)
}

// Elevation returns render-time privilege settings. Windows targets never sudo.
func (c Config) Elevation() remote.Elevation {
	return remote.Elevation{
		Sudo:        c.Sudo && !c.Family().IsWindows(),
		SudoCommand: c.SudoCommand,
		Prefix:      c.CommandPrefix,
	}
}

// RemotePath joins parts under root_path using the target separator.
func (c Config) RemotePath(parts ...string) string {
	return remote.PathJoin(c.Family(), append([]string{c.RootPath}, parts...)...)
}
