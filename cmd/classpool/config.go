package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".classpool.yaml"

type Config struct {
	// Strict validates every constant pool reference before loading.
	Strict bool `yaml:"strict"`
	// Format is the dump output format: line or yaml.
	Format    string `yaml:"format"`
	Verbosity int    `yaml:"verbosity"`
}

func defaultConfig() *Config {
	return &Config{Format: "line"}
}

// loadConfig reads path, or defaultConfigFile when path is empty. A missing
// default file is not an error.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Format {
	case "line", "yaml":
	default:
		return fmt.Errorf("unknown format: %s (expected line or yaml)", c.Format)
	}
	if c.Verbosity < 0 {
		return fmt.Errorf("verbosity must not be negative")
	}
	return nil
}
