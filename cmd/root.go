// Package cmd implements lootcond, the debug command-line front end for
// the condition interpreter: parsing, evaluating, and introspecting LOOT
// condition strings against a concrete game/data-path without needing to
// embed the library in a C++ host.
package cmd

import (
	stderrors "errors"
	"fmt"
	"os"
	"runtime"

	"github.com/loot/condition-interpreter/pkg/cerrors"
	"github.com/loot/condition-interpreter/pkg/config"
	"github.com/loot/condition-interpreter/pkg/verbose"
	"github.com/spf13/cobra"
)

var exitFunc = os.Exit
var verboseFlag bool
var versionFlag bool
var configPathFlag string

// loadedConfig holds the defaults eval falls back to when its own
// flags are left at the zero value, populated once per Execute() call.
var loadedConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "lootcond",
	Short: "Parse and evaluate LOOT condition strings",
	Long:  `lootcond parses and evaluates the condition-string language LOOT masterlists use to gate messages, tags, and dirty-plugin entries on installed files, active plugins, versions, and checksums.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verboseFlag {
			verbose.Enable()
		}
		cfg, err := config.LoadConfig(configPathFlag)
		if err != nil {
			return err
		}
		loadedConfig = cfg
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		if versionFlag {
			printVersionOutput()
			return
		}
		_ = cmd.Help()
	},
}

// Execute runs the root command and exits with a status code derived from
// the returned error's cerrors.Coder, mirroring the C ABI's own status
// block so the CLI and the embedded library agree on what a given failure
// means.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code := 1
		var coder cerrors.Coder
		if stderrors.As(err, &coder) {
			code = coder.Code()
		}
		verbose.Infof("exit code %d: %v", code, err)
		exitFunc(code)
	}
}

// ExecuteTest runs the root command for testing, returning the error
// directly instead of calling os.Exit.
func ExecuteTest() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Enable verbose debug output")
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to a lootcond config file (defaults to the built-in default game/data-path)")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "v", false, "Show version information")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(evalCmd)
}

func printVersionOutput() {
	buildOS, buildArch := getBuildTarget()
	fmt.Printf("  Build:   %s/%s\n", buildOS, buildArch)
	if buildOS != runtime.GOOS || buildArch != runtime.GOARCH {
		fmt.Printf("  Runtime: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	}
	fmt.Printf("  Go:      %s\n", runtime.Version())
	if BuildTime != "" {
		fmt.Printf("  Date:    %s\n", BuildTime)
	}
	fmt.Println()
	if GitCommit != "" {
		fmt.Printf("  Git:     %s\n", GitCommit)
	}
	fmt.Printf("  Version: %s\n", Version)
}
