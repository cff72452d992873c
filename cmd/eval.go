package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/loot/condition-interpreter/pkg/cerrors"
	"github.com/loot/condition-interpreter/pkg/condition"
	"github.com/loot/condition-interpreter/pkg/eval"
	"github.com/loot/condition-interpreter/pkg/gamecode"
	"github.com/loot/condition-interpreter/pkg/state"
	"github.com/loot/condition-interpreter/pkg/warnings"
	"github.com/spf13/cobra"
)

var (
	evalGame                string
	evalDataPath            string
	evalAdditionalDataPaths []string
	evalActivePlugins       []string
	evalPluginVersions      []string
)

var evalCmd = &cobra.Command{
	Use:   "eval <condition>",
	Short: "Evaluate a condition string against a game's data path",
	Long:  `Parses and evaluates a LOOT condition string against a concrete game/data-path/active-plugin state, printing "true" or "false".`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalGame, "game", "", "Game name (e.g. \"Skyrim SE\", \"Oblivion\", \"OpenMW\")")
	evalCmd.Flags().StringVar(&evalDataPath, "data-path", ".", "Path to the game's Data directory")
	evalCmd.Flags().StringArrayVar(&evalAdditionalDataPaths, "additional-data-path", nil, "Extra data directory searched before --data-path (repeatable, highest precedence first)")
	evalCmd.Flags().StringArrayVar(&evalActivePlugins, "active", nil, "Plugin filename to treat as active (repeatable)")
	evalCmd.Flags().StringArrayVar(&evalPluginVersions, "plugin-version", nil, "name=version override for the version() predicate (repeatable)")
}

func runEval(cmd *cobra.Command, args []string) error {
	game := evalGame
	if !cmd.Flags().Changed("game") && loadedConfig != nil && loadedConfig.DefaultGame != "" {
		game = loadedConfig.DefaultGame
	}
	if !cmd.Flags().Changed("data-path") && loadedConfig != nil && loadedConfig.DataPath != "" {
		evalDataPath = loadedConfig.DataPath
	}
	if !cmd.Flags().Changed("additional-data-path") && loadedConfig != nil && len(loadedConfig.AdditionalDataPaths) > 0 {
		evalAdditionalDataPaths = loadedConfig.AdditionalDataPaths
	}

	gameCode, ok := gamecode.ParseName(game)
	if !ok {
		return &cerrors.InvalidArgument{Message: fmt.Sprintf("unrecognised game %q", game)}
	}

	st, err := state.New(gameCode, evalDataPath)
	if err != nil {
		return err
	}
	for _, p := range evalAdditionalDataPaths {
		if _, statErr := os.Stat(p); statErr != nil {
			warnings.Warnf("warning: additional data path %q does not exist\n", p)
		}
	}
	st.SetAdditionalDataPaths(evalAdditionalDataPaths)
	st.SetActivePlugins(evalActivePlugins)

	versions, err := parseNameValuePairs(evalPluginVersions, "--plugin-version")
	if err != nil {
		return err
	}
	st.SetPluginVersions(versions)

	expr, err := condition.Parse(args[0])
	if err != nil {
		return err
	}

	result, err := eval.Eval(expr, st)
	if err != nil {
		return err
	}

	fmt.Println(result)
	return nil
}

// parseNameValuePairs splits a repeated "name=value" flag into ordered
// entries, rejecting entries missing the separator. The flag's repetition
// order is preserved rather than collapsed into a map, since
// state.SetPluginVersions is itself order-preserving.
func parseNameValuePairs(pairs []string, flag string) ([]state.PluginVersionEntry, error) {
	out := make([]state.PluginVersionEntry, 0, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, &cerrors.InvalidArgument{Message: fmt.Sprintf("%s value %q must be in the form name=value", flag, p)}
		}
		out = append(out, state.PluginVersionEntry{Name: name, Version: value})
	}
	return out, nil
}
