package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	TransportLocal = "local"
	TransportSSH   = "ssh"

	DefaultSuiteName = "kitchen"
	DefaultAPIAddr   = ":9400"
)

// Suite is one kitchenctl configuration file: a shared provisioner map plus
// the targets it converges.
type Suite struct {
	Name        string         `toml:"name" yaml:"name"`
	SandboxDir  string         `toml:"sandbox_dir" yaml:"sandbox_dir"`
	Repository  string         `toml:"repository" yaml:"repository"`
	Parallelism int            `toml:"parallelism" yaml:"parallelism"`
	FailFast    bool           `toml:"fail_fast" yaml:"fail_fast"`
	KeepSandbox bool           `toml:"keep_sandbox" yaml:"keep_sandbox"`
	MetricsFile string         `toml:"metrics_file" yaml:"metrics_file"`
	Provisioner map[string]any `toml:"provisioner" yaml:"provisioner"`
	Targets     []Target       `toml:"targets" yaml:"targets"`
	API         APIConfig      `toml:"api" yaml:"api"`
}

// Target is one machine reachable over a transport.
type Target struct {
	Name                        string         `toml:"name" yaml:"name"`
	Transport                   string         `toml:"transport" yaml:"transport"`
	Host                        string         `toml:"host" yaml:"host"`
	Port                        string         `toml:"port" yaml:"port"`
	User                        string         `toml:"user" yaml:"user"`
	KeyPath                     string         `toml:"key_path" yaml:"key_path"`
	KnownHostsPath              string         `toml:"known_hosts_path" yaml:"known_hosts_path"`
	InsecureSkipHostKeyChecking bool           `toml:"insecure_skip_host_key_checking" yaml:"insecure_skip_host_key_checking"`
	Timeout                     string         `toml:"timeout" yaml:"timeout"`
	Provisioner                 map[string]any `toml:"provisioner" yaml:"provisioner"`
}

type APIConfig struct {
	Addr        string   `toml:"addr" yaml:"addr"`
	CorsOrigins []string `toml:"cors_origins" yaml:"cors_origins"`
}

// LoadSuite reads a suite file. The format follows the extension: .toml,
// .yml or .yaml.
func LoadSuite(path string) (Suite, error) {
	var cfg Suite
	if err := decodeFile(path, &cfg); err != nil {
		return Suite{}, err
	}
	cfg = applyDefaults(cfg)
	if err := ValidateSuite(cfg); err != nil {
		return Suite{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func decodeFile(path string, out *Suite) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, out); err != nil {
			return fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		return nil
	case ".yml", ".yaml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("config load failed (%s): %w", path, err)
		}
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		return nil
	default:
		return fmt.Errorf("config format unsupported (%s): use .toml, .yml or .yaml", path)
	}
}

func applyDefaults(cfg Suite) Suite {
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = DefaultSuiteName
	}
	if strings.TrimSpace(cfg.API.Addr) == "" {
		cfg.API.Addr = DefaultAPIAddr
	}
	if cfg.Provisioner == nil {
		cfg.Provisioner = map[string]any{}
	}
	for i := range cfg.Targets {
		if strings.TrimSpace(cfg.Targets[i].Transport) == "" {
			cfg.Targets[i].Transport = TransportLocal
		}
	}
	return cfg
}

func ValidateSuite(cfg Suite) error {
	if cfg.Parallelism < 0 {
		return fmt.Errorf("parallelism must be >= 0")
	}
	seen := make(map[string]struct{}, len(cfg.Targets))
	for i, target := range cfg.Targets {
		if err := ValidateTarget(target); err != nil {
			return fmt.Errorf("target[%d] invalid: %w", i, err)
		}
		name := strings.TrimSpace(target.Name)
		if _, ok := seen[name]; ok {
			return fmt.Errorf("target[%d] invalid: duplicate name %q", i, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func ValidateTarget(target Target) error {
	if strings.TrimSpace(target.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := target.TimeoutDuration(); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(target.Transport)) {
	case TransportLocal:
		return nil
	case TransportSSH:
		if strings.TrimSpace(target.Host) == "" {
			return fmt.Errorf("host is required for ssh")
		}
		if strings.TrimSpace(target.User) == "" {
			return fmt.Errorf("user is required for ssh")
		}
		if strings.TrimSpace(target.KeyPath) == "" {
			return fmt.Errorf("key_path is required for ssh")
		}
		return nil
	default:
		return fmt.Errorf("unknown transport %q", target.Transport)
	}
}

// TimeoutDuration parses the connect timeout. Empty means no timeout.
func (t Target) TimeoutDuration() (time.Duration, error) {
	raw := strings.TrimSpace(t.Timeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse timeout: %w", err)
	}
	return d, nil
}

// ProvisionerFor layers the target's provisioner map over the suite map.
// Nested maps merge key by key; node_name defaults to the target name.
func (s Suite) ProvisionerFor(target Target) map[string]any {
	merged := MergeMaps(s.Provisioner, target.Provisioner)
	if _, ok := merged["node_name"]; !ok && strings.TrimSpace(target.Name) != "" {
		merged["node_name"] = target.Name
	}
	return merged
}

// MergeMaps returns a new map with override layered over base. Neither input
// is modified.
func MergeMaps(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = cloneValue(v)
	}
	for k, v := range override {
		baseMap, baseOK := out[k].(map[string]any)
		overMap, overOK := v.(map[string]any)
		if baseOK && overOK {
			out[k] = MergeMaps(baseMap, overMap)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		maps.Copy(out, val)
		for k, inner := range out {
			out[k] = cloneValue(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}
