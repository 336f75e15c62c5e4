package chefclient

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// AttributesWriter writes the node attributes file referenced by --json-attributes.
type AttributesWriter struct{}

// Write renders dna.json into sandboxPath and returns its file name.
func (AttributesWriter) Write(sandboxPath string, cfg Config) (string, error) {
	log.Info().Str("file", AttributesFilename).Msg("preparing node attributes")

	body, err := RenderAttributes(cfg)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(sandboxPath, AttributesFilename), body, 0o644); err != nil {
		return "", err
	}
	return AttributesFilename, nil
}

// RenderAttributes merges the configured attributes with the run list.
// run_list always wins over an attribute of the same name.
func RenderAttributes(cfg Config) ([]byte, error) {
	data := make(map[string]any, len(cfg.Attributes)+1)
	maps.Copy(data, cfg.Attributes)
	runList := cfg.RunList
	if runList == nil {
		runList = []string{}
	}
	data["run_list"] = runList

	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigRender, AttributesFilename, err)
	}
	return append(body, '\n'), nil
}
