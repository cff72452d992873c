// Package eval walks an already-parsed condition expression (pkg/condition)
// against a State (pkg/state), delegating function clauses to pkg/predicate
// and folding the result per §4.G: a Compound evaluates its first clause
// then folds the rest, short-circuiting "and" on false and "or" on true;
// an inverted expression negates its inner Compound's result.
package eval

import (
	"github.com/loot/condition-interpreter/pkg/condition"
	"github.com/loot/condition-interpreter/pkg/predicate"
	"github.com/loot/condition-interpreter/pkg/state"
	"github.com/loot/condition-interpreter/pkg/verbose"
)

// Eval evaluates expr against st. Safe for concurrent callers sharing one
// st, since every mutable piece of state it touches lives behind st's own
// locks (§5: "multiple threads may call eval concurrently").
func Eval(expr *condition.Expression, st *state.State) (bool, error) {
	result, err := evalCompound(expr.Compound, st)
	if err != nil {
		return false, err
	}
	if expr.Inverted {
		result = !result
	}
	verbose.Tracef("eval: %s -> %v", expr.String(), result)
	return result, nil
}

// evalCompound folds a non-empty sequence of (operator, clause) pairs left
// to right. The first pair's operator is always OpNone and simply seeds
// the accumulator with its clause's result.
func evalCompound(c condition.Compound, st *state.State) (bool, error) {
	acc, err := evalClause(c[0].Clause, st)
	if err != nil {
		return false, err
	}

	for _, pair := range c[1:] {
		switch pair.Op {
		case condition.OpAnd:
			if !acc {
				continue // short-circuit: false and X is always false
			}
		case condition.OpOr:
			if acc {
				continue // short-circuit: true or X is always true
			}
		}

		next, err := evalClause(pair.Clause, st)
		if err != nil {
			return false, err
		}

		switch pair.Op {
		case condition.OpAnd:
			acc = acc && next
		case condition.OpOr:
			acc = acc || next
		}
	}

	return acc, nil
}

// evalClause evaluates one clause: either a predicate function call
// (delegated to pkg/predicate, which consults the condition cache) or a
// parenthesised nested expression (recursed into directly).
func evalClause(c condition.Clause, st *state.State) (bool, error) {
	switch {
	case c.Function != nil:
		return predicate.Eval(c.Function, st)
	case c.Nested != nil:
		return Eval(c.Nested, st)
	default:
		return false, nil
	}
}
