package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hiverpc/hiverpc/common"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML client config from fs, expands ${ENV} references, applies
// defaults and validates the result.
func LoadConfig(fs afero.Fs, filename string) (*common.ClientConfig, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, err
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", filename, err)
	}
	return cfg, nil
}

// ParseConfig decodes raw YAML into a ready to use config.
func ParseConfig(data []byte) (*common.ClientConfig, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg common.ClientConfig
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// FromNodes builds a default config for the given node addresses.
func FromNodes(nodes ...string) (*common.ClientConfig, error) {
	cfg := &common.ClientConfig{Nodes: nodes}
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
