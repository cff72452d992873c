// Package config loads the CLI's default game/data-path settings from a
// YAML file, falling back to an embedded default when none is given.
package config

// Config holds the defaults the lootcond CLI applies when a command's
// flags don't override them.
type Config struct {
	// DefaultGame is the game name used when a command omits --game.
	DefaultGame string `yaml:"default_game,omitempty"`
	// DataPath is the game's Data directory, used when a command omits
	// --data-path.
	DataPath string `yaml:"data_path,omitempty"`
	// AdditionalDataPaths lists extra data directories searched before
	// DataPath, highest-precedence first (reversed for OpenMW by
	// pkg/pathresolve).
	AdditionalDataPaths []string `yaml:"additional_data_paths,omitempty"`
}
