package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetEvalFlags restores eval's package-level flag variables to their
// zero values, since StringArrayVar-backed flags append across repeated
// rootCmd.Execute() calls (pflag's StringArray.Set never replaces), and
// clears each flag's Changed mark, which pflag never resets on its own;
// either would otherwise leak state between test cases sharing the one
// command tree.
func resetEvalFlags(t *testing.T) {
	t.Helper()
	evalGame = ""
	evalDataPath = "."
	evalAdditionalDataPaths = nil
	evalActivePlugins = nil
	evalPluginVersions = nil
	for _, name := range []string{"game", "data-path", "additional-data-path", "active", "plugin-version"} {
		if f := evalCmd.Flags().Lookup(name); f != nil {
			f.Changed = false
		}
	}
}

func TestEvalCommandTrueForExistingFile(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	resetEvalFlags(t)

	dataPath := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataPath, "Blank.esp"), []byte("x"), 0o644))

	os.Args = []string{"lootcond", "eval", `file("Blank.esp")`, "--game", "Oblivion", "--data-path", dataPath}
	err := ExecuteTest()
	assert.NoError(t, err)
}

func TestEvalCommandRejectsUnknownGame(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	resetEvalFlags(t)

	os.Args = []string{"lootcond", "eval", `file("Blank.esp")`, "--game", "NotAGame", "--data-path", t.TempDir()}
	err := ExecuteTest()
	assert.Error(t, err)
}

func TestEvalCommandUsesActivePlugins(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	resetEvalFlags(t)

	os.Args = []string{
		"lootcond", "eval", `active("Blank.esm")`,
		"--game", "Skyrim SE",
		"--data-path", t.TempDir(),
		"--active", "Blank.esm",
	}
	err := ExecuteTest()
	assert.NoError(t, err)
}

func TestEvalCommandFallsBackToConfigDefaultGame(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	resetEvalFlags(t)
	defer func() { configPathFlag = "" }()

	dataPath := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataPath, "Blank.esp"), []byte("x"), 0o644))

	configPath := filepath.Join(t.TempDir(), "lootcond.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("default_game: Oblivion\n"), 0o644))

	os.Args = []string{
		"lootcond", "--config", configPath,
		"eval", `file("Blank.esp")`,
		"--data-path", dataPath,
	}
	err := ExecuteTest()
	assert.NoError(t, err)
}

func TestEvalCommandRejectsMalformedPluginVersionPair(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	resetEvalFlags(t)

	os.Args = []string{
		"lootcond", "eval", `version("Blank.esm", "1.0", ==)`,
		"--game", "Skyrim SE",
		"--data-path", t.TempDir(),
		"--plugin-version", "Blank.esm-missing-equals",
	}
	err := ExecuteTest()
	assert.Error(t, err)
}
