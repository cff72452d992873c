package cmd

import (
	"fmt"

	"github.com/loot/condition-interpreter/pkg/condition"
	"github.com/loot/condition-interpreter/pkg/output"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <condition>",
	Short: "Print a condition string's clause tree as a table",
	Long:  `Parses a LOOT condition string and prints every clause it contains -- its nesting depth, the logical operator joining it to the previous clause, and its canonical form -- without evaluating it against any game state.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	expr, err := condition.Parse(args[0])
	if err != nil {
		return err
	}

	rows := flattenExpression(expr, 0, "")

	table := output.NewTable().
		AddColumnWithMinWidth("DEPTH", 5).
		AddColumnWithMinWidth("OP", 2).
		AddColumnWithMinWidth("CLAUSE", 6)
	for _, r := range rows {
		table.UpdateWidths(r.depth, r.op, r.clause)
	}

	table.Fprint(cmd.OutOrStdout())
	for _, r := range rows {
		fmt.Fprintln(cmd.OutOrStdout(), table.FormatRow(r.depth, r.op, r.clause))
	}
	return nil
}

type inspectRow struct {
	depth  string
	op     string
	clause string
}

// flattenExpression walks an expression tree depth-first, one row per
// clause, so a deeply nested condition prints as a flat, readable table
// instead of requiring the reader to parse indentation by eye.
func flattenExpression(expr *condition.Expression, depth int, leadOp string) []inspectRow {
	var rows []inspectRow
	if expr.Inverted {
		rows = append(rows, inspectRow{depth: depthLabel(depth), op: leadOp, clause: "not ("})
		depth++
		leadOp = ""
	}
	for i, pair := range expr.Compound {
		op := leadOp
		if i > 0 {
			op = pair.Op.String()
		}
		switch {
		case pair.Clause.Function != nil:
			rows = append(rows, inspectRow{depth: depthLabel(depth), op: op, clause: pair.Clause.Function.String()})
		case pair.Clause.Nested != nil:
			rows = append(rows, flattenExpression(pair.Clause.Nested, depth, op)...)
		}
	}
	return rows
}

func depthLabel(depth int) string {
	b := make([]byte, depth)
	for i := range b {
		b[i] = '>'
	}
	return string(b)
}
