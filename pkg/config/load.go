package config

import (
	"fmt"
	"os"

	"github.com/loot/condition-interpreter/pkg/verbose"
	"gopkg.in/yaml.v3"
)

// DefaultMaxConfigFileSize bounds how large a config file LoadConfig will
// read, to avoid pulling an unbounded file into memory.
const DefaultMaxConfigFileSize = 10 << 20 // 10MB

// LoadConfig loads configuration from configPath, or returns the built-in
// default when configPath is empty. Unlike the tool this package's style
// was learned from, there is no extends/inheritance chain here -- the
// interpreter's config surface is three scalar fields, not a rule set.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		verbose.Infof("using built-in default configuration")
		return loadDefaultConfig(), nil
	}

	verbose.Infof("loading config from: %s", configPath)
	info, err := os.Stat(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > DefaultMaxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d bytes)", info.Size(), DefaultMaxConfigFileSize)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return &cfg, nil
}
