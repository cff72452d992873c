// Package condition parses LOOT condition strings into the expression tree
// of spec §3-§4.F: a grammar front end over function calls, comparisons,
// and logical composition, with lazily-compiled and cached regex
// arguments. The evaluator in pkg/eval walks the tree this package builds;
// this package never touches a State.
package condition

import (
	"fmt"
	"strings"

	"github.com/loot/condition-interpreter/pkg/version"
)

// LogicalOp is the keyword joining two clauses inside a Compound.
type LogicalOp int

const (
	// OpNone marks a Compound's first clause, whose leading operator is
	// implicit and never rendered.
	OpNone LogicalOp = iota
	OpAnd
	OpOr
)

func (op LogicalOp) String() string {
	switch op {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	default:
		return ""
	}
}

// ComparisonOp is one of the six comparison tokens a version or checksum
// comparison function can carry.
type ComparisonOp int

const (
	OpEq ComparisonOp = iota
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
)

func (op ComparisonOp) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLe:
		return "<="
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// FuncKind is the closed set of condition predicates a Function can be.
type FuncKind int

const (
	FuncFile FuncKind = iota
	FuncFileRegex
	FuncActive
	FuncActiveRegex
	FuncMany
	FuncManyActive
	FuncChecksum
	FuncVersion
	FuncProductVersion
	FuncFilenameVersion
	FuncReadable
	FuncIsExecutable
	FuncIsMaster
	FuncFileSize
	FuncDescriptionContains
)

// funcNames maps each FuncKind to the identifier written in condition
// strings, and back. This is the single source of truth for both parsing
// and display, so the two can never drift apart.
var funcNames = [...]string{
	FuncFile:                "file",
	FuncFileRegex:           "file",
	FuncActive:              "active",
	FuncActiveRegex:         "active",
	FuncMany:                "many",
	FuncManyActive:          "many_active",
	FuncChecksum:            "checksum",
	FuncVersion:             "version",
	FuncProductVersion:      "product_version",
	FuncFilenameVersion:     "filename_version",
	FuncReadable:            "readable",
	FuncIsExecutable:        "is_executable",
	FuncIsMaster:            "is_master",
	FuncFileSize:            "file_size",
	FuncDescriptionContains: "description_contains",
}

// PathArg is a relative path argument. Backslashes are a literal separator,
// never an escape (§3); Raw preserves exactly what was written between the
// quotes.
type PathArg struct {
	Raw string
}

// Fingerprint normalises the path the way §4.D requires for cache keys:
// lowercased, forward-slash-separated.
func (p PathArg) Fingerprint() string {
	return strings.ToLower(strings.ReplaceAll(p.Raw, `\`, "/"))
}

// RegexArg carries a regex argument's original text only. The parser
// compiles that text once at parse time, so an invalid regex is a parse
// error; MustMatcher returns the anchored matcher from the package-level
// regex cache (§3, §9 "cyclic regex caching").
type RegexArg struct {
	Raw string
}

// Fingerprint for a regex argument is simply its original text (§4.D).
func (r RegexArg) Fingerprint() string { return r.Raw }

// Function is one call to a condition predicate. Only the fields relevant
// to Kind are populated; the zero value of the rest is never read, mirroring
// the tagged-variant discipline of §9 ("tagged variants over dynamic
// dispatch") even though Go has no sum types of its own.
type Function struct {
	Kind FuncKind

	Path  PathArg
	Regex RegexArg

	CRC  uint32
	Size uint64

	Version version.Version
	Op      ComparisonOp
}

// Fingerprint returns the cache key §4.D specifies for condition_cache: a
// predicate tag plus normalised arguments. Path arguments normalise via
// PathArg.Fingerprint (lowercased, forward-slash); regex arguments
// fingerprint by their original text.
func (f *Function) Fingerprint() string {
	tag := funcNames[f.Kind]
	switch f.Kind {
	case FuncFile, FuncActive, FuncReadable, FuncIsExecutable, FuncIsMaster:
		return fmt.Sprintf("%s:%s:%s", tag, kindSuffix(f.Kind), f.Path.Fingerprint())
	case FuncFileRegex, FuncActiveRegex, FuncMany, FuncManyActive:
		return fmt.Sprintf("%s:%s:%s", tag, kindSuffix(f.Kind), f.Regex.Fingerprint())
	case FuncChecksum:
		return fmt.Sprintf("%s:%s:%08x", tag, f.Path.Fingerprint(), f.CRC)
	case FuncVersion, FuncProductVersion:
		return fmt.Sprintf("%s:%s:%s:%s", tag, f.Path.Fingerprint(), f.Version.String(), f.Op)
	case FuncFilenameVersion:
		return fmt.Sprintf("%s:%s:%s:%s", tag, f.Regex.Fingerprint(), f.Version.String(), f.Op)
	case FuncFileSize:
		return fmt.Sprintf("%s:%s:%d", tag, f.Path.Fingerprint(), f.Size)
	case FuncDescriptionContains:
		return fmt.Sprintf("%s:%s:%s", tag, f.Path.Fingerprint(), f.Regex.Fingerprint())
	default:
		return tag
	}
}

// kindSuffix disambiguates the two Func* kinds that share one funcNames
// entry (file/fileRegex, active/activeRegex, plain-path vs regex argument)
// so their fingerprints never collide.
func kindSuffix(k FuncKind) string {
	switch k {
	case FuncFile, FuncActive:
		return "path"
	default:
		return "regex"
	}
}

// Clause is either a Function call or a parenthesised nested Expression.
// Exactly one of the two fields is non-nil.
type Clause struct {
	Function *Function
	Nested   *Expression
}

// ExpressionAndOp pairs a clause with the logical operator that precedes it
// inside a Compound; the first pair's Op is always OpNone.
type ExpressionAndOp struct {
	Op     LogicalOp
	Clause Clause
}

// Compound is a non-empty sequence of (operator, clause) pairs.
type Compound []ExpressionAndOp

// Expression is the interpreter's algebraic tree: a Compound, optionally
// wrapped in a logical negation (the grammar's "not ( … )" prefix form).
type Expression struct {
	Inverted bool
	Compound Compound
}

// String renders the expression back to its canonical textual form. Used
// both for debugging/the CLI and to exercise the parse/display round-trip
// property (§8 property 1): parse(display(e)) must be structurally
// equivalent to e.
func (e *Expression) String() string {
	var sb strings.Builder
	writeCompound(&sb, e.Compound)
	body := sb.String()
	if e.Inverted {
		return fmt.Sprintf("not (%s)", body)
	}
	return body
}

func writeCompound(sb *strings.Builder, c Compound) {
	for i, pair := range c {
		if i > 0 {
			sb.WriteString(" ")
			sb.WriteString(pair.Op.String())
			sb.WriteString(" ")
		}
		writeClause(sb, pair.Clause)
	}
}

func writeClause(sb *strings.Builder, c Clause) {
	switch {
	case c.Function != nil:
		sb.WriteString(c.Function.String())
	case c.Nested != nil:
		sb.WriteString("(")
		sb.WriteString(c.Nested.String())
		sb.WriteString(")")
	}
}

// String renders a single function call in its canonical form.
func (f *Function) String() string {
	name := funcNames[f.Kind]
	switch f.Kind {
	case FuncFile, FuncReadable, FuncIsExecutable, FuncIsMaster:
		return fmt.Sprintf(`%s("%s")`, name, f.Path.Raw)
	case FuncFileRegex, FuncActive, FuncActiveRegex, FuncMany, FuncManyActive:
		raw := f.Path.Raw
		if f.Kind != FuncActive {
			raw = f.Regex.Raw
		}
		return fmt.Sprintf(`%s("%s")`, name, raw)
	case FuncChecksum:
		return fmt.Sprintf(`%s("%s", %08X)`, name, f.Path.Raw, f.CRC)
	case FuncVersion, FuncProductVersion:
		return fmt.Sprintf(`%s("%s", "%s", %s)`, name, f.Path.Raw, f.Version.String(), f.Op)
	case FuncFilenameVersion:
		return fmt.Sprintf(`%s("%s", "%s", %s)`, name, f.Regex.Raw, f.Version.String(), f.Op)
	case FuncFileSize:
		return fmt.Sprintf(`%s("%s", %d)`, name, f.Path.Raw, f.Size)
	case FuncDescriptionContains:
		return fmt.Sprintf(`%s("%s", "%s")`, name, f.Path.Raw, f.Regex.Raw)
	default:
		return name + "(?)"
	}
}
