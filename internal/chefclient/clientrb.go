package chefclient

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// ConfigFileWriter renders client.rb into the sandbox.
type ConfigFileWriter struct{}

// Write renders the config file and returns the file name written under sandboxPath.
func (ConfigFileWriter) Write(sandboxPath string, cfg Config) (string, error) {
	name := cfg.ConfigFilename
	log.Info().Str("file", name).Msg("preparing client config")

	body, err := RenderConfigFile(cfg)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(sandboxPath, name), []byte(body), 0o644); err != nil {
		return "", err
	}
	return name, nil
}

type rbEntry struct {
	key   string
	value any
}

// RenderConfigFile serializes the merged client.rb data as Chef's Ruby DSL,
// one `key value` pair per line.
func RenderConfigFile(cfg Config) (string, error) {
	var b strings.Builder
	for _, entry := range configData(cfg) {
		value, err := formatRubyValue(entry.value)
		if err != nil {
			return "", fmt.Errorf("%w: key=%q: %v", ErrConfigRender, entry.key, err)
		}
		b.WriteString(entry.key)
		b.WriteByte(' ')
		b.WriteString(value)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// configData merges the computed defaults with client_rb. Overridden keys keep
// their default position; new keys follow in sorted order.
func configData(cfg Config) []rbEntry {
	root := strings.ReplaceAll(cfg.RootPath, "$env:TEMP", "#{ENV['TEMP']}")
	rubyCfg := cfg
	rubyCfg.RootPath = root
	path := rubyCfg.RemotePath

	entries := make([]rbEntry, 0, 16+len(cfg.ClientRB))
	if name := strings.TrimSpace(cfg.NodeName); name != "" {
		entries = append(entries, rbEntry{"node_name", name})
	}
	entries = append(entries,
		rbEntry{"checksum_path", path("checksums")},
		rbEntry{"file_cache_path", path("cache")},
		rbEntry{"file_backup_path", path("backup")},
		rbEntry{"cookbook_path", []string{path("cookbooks"), path("site-cookbooks")}},
		rbEntry{"data_bag_path", path("data_bags")},
		rbEntry{"environment_path", path("environments")},
		rbEntry{"node_path", path("nodes")},
		rbEntry{"role_path", path("roles")},
		rbEntry{"client_path", path("clients")},
		rbEntry{"user_path", path("users")},
		rbEntry{"validation_key", path(ValidationPEM)},
		rbEntry{"client_key", path(ClientPEM)},
		rbEntry{"chef_server_url", cfg.ChefServerURL},
		rbEntry{"encrypted_data_bag_secret", path("encrypted_data_bag_secret")},
	)

	for _, key := range sortedKeys(cfg.ClientRB) {
		entries = setEntry(entries, key, cfg.ClientRB[key])
	}
	if len(cfg.NamedRunList) > 0 {
		entries = setEntry(entries, "named_run_list", cfg.NamedRunList)
	}
	return entries
}

func setEntry(entries []rbEntry, key string, value any) []rbEntry {
	for i := range entries {
		if entries[i].key == key {
			entries[i].value = value
			return entries
		}
	}
	return append(entries, rbEntry{key, value})
}

var errUnsupportedValue = errors.New("unsupported value type")

func formatRubyValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "nil", nil
	case string:
		if len(val) > 1 && strings.HasPrefix(val, ":") {
			return val, nil
		}
		return rubyString(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			part, err := formatRubyValue(rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return "", fmt.Errorf("%w: map key %s", errUnsupportedValue, rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			part, err := formatRubyValue(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return "", err
			}
			parts = append(parts, rubyString(k)+" => "+part)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	}
	return "", fmt.Errorf("%w: %T", errUnsupportedValue, v)
}

func rubyString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
