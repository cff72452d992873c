package cmd

import (
	"fmt"

	"github.com/loot/condition-interpreter/pkg/condition"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <condition>",
	Short: "Parse a condition string and print its canonical form",
	Long:  `Parses a LOOT condition string and prints it back in canonical form, without evaluating it against any game state. Useful for checking a condition string is well-formed.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	expr, err := condition.Parse(args[0])
	if err != nil {
		return err
	}
	fmt.Println(expr.String())
	return nil
}
