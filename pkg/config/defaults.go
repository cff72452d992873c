package config

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultConfigYAML string

// loadDefaultConfig loads the embedded default configuration. A malformed
// embed (which would only happen if this package's own default.yml were
// broken) falls back to an empty Config rather than panicking.
func loadDefaultConfig() *Config {
	var cfg Config
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &cfg); err == nil {
		return &cfg
	}
	return &Config{}
}

// GetDefaultConfig returns the embedded default configuration as YAML, for
// `lootcond config --print-default`-style introspection.
func GetDefaultConfig() string {
	return defaultConfigYAML
}
