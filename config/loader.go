package config

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/IvanTurko/perpstream-go/sdkerr"
	"gopkg.in/yaml.v3"
)

const subsys = "config"

// Load reads a YAML config file and expands ${VAR} environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sdkerr.New(subsys, "Load", sdkerr.ErrConfiguration, err).WithMessage("read config file")
	}
	return Parse(data)
}

// Parse decodes YAML config data after expanding ${VAR} environment variables.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(expanded))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, sdkerr.New(subsys, "Parse", sdkerr.ErrConfiguration, err).WithMessage("parse config yaml")
	}
	return &cfg, nil
}

// LoadAndValidate loads config, applies defaults, and validates.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
