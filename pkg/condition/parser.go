package condition

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/loot/condition-interpreter/pkg/cerrors"
	"github.com/loot/condition-interpreter/pkg/version"
)

// Parse turns a condition string into an Expression, per the grammar of
// §4.F. The parser fails if any input remains after the top-level
// expression.
func Parse(expr string) (*Expression, error) {
	p := &parser{lex: newLexer(expr), src: expr}
	if err := p.advance(); err != nil {
		return nil, p.wrap(err)
	}

	e, err := p.parseExpression()
	if err != nil {
		return nil, p.wrap(err)
	}
	if p.tok.kind != tokEOF {
		return nil, &cerrors.ParsingError{Expr: expr, Detail: "unexpected trailing input at byte " + itoa(p.tok.pos)}
	}
	return e, nil
}

type parser struct {
	lex *lexer
	src string
	tok token
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

// wrap turns the lexer/parser's internal error carrier into the error kinds
// that cross the package boundary. The original condition grammar is parsed
// in one shot against a complete, already-fully-read string -- there is no
// streaming input to resume once more bytes arrive -- so unexpected EOF
// mid-token (an unterminated string, a dangling "(") is reported the same
// way any other malformed input is: a ParsingError naming the byte offset
// and the whole expression, per §8 scenario 6.
func (p *parser) wrap(err error) error {
	if ig, ok := err.(*incompleteOrGeneric); ok {
		return &cerrors.ParsingError{Expr: p.src, Detail: ig.Error()}
	}
	if _, ok := err.(cerrors.Coder); ok {
		return err
	}
	return &cerrors.ParsingError{Expr: p.src, Detail: err.Error()}
}

// parseExpression implements: expression := compound | "not" ws "(" ws compound ws ")"
func (p *parser) parseExpression() (*Expression, error) {
	if p.tok.kind == tokIdent && p.tok.text == "not" {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.expect(tokLParen, "expected '(' after 'not'"); err != nil {
			return nil, err
		}
		compound, err := p.parseCompound()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "expected ')' to close 'not (...)'"); err != nil {
			return nil, err
		}
		return &Expression{Inverted: true, Compound: compound}, nil
	}

	compound, err := p.parseCompound()
	if err != nil {
		return nil, err
	}
	return &Expression{Compound: compound}, nil
}

// parseCompound implements: compound := clause (ws (and|or) ws clause)*
func (p *parser) parseCompound() (Compound, error) {
	clause, err := p.parseClause()
	if err != nil {
		return nil, err
	}
	compound := Compound{{Op: OpNone, Clause: clause}}

	for {
		var op LogicalOp
		switch {
		case p.tok.kind == tokIdent && p.tok.text == "and":
			op = OpAnd
		case p.tok.kind == tokIdent && p.tok.text == "or":
			op = OpOr
		default:
			return compound, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		compound = append(compound, ExpressionAndOp{Op: op, Clause: next})
	}
}

// parseClause implements: clause := function | "(" ws expression ws ")"
func (p *parser) parseClause() (Clause, error) {
	if p.tok.kind == tokLParen {
		if err := p.advance(); err != nil {
			return Clause{}, err
		}
		e, err := p.parseExpression()
		if err != nil {
			return Clause{}, err
		}
		if err := p.expect(tokRParen, "expected ')' to close group"); err != nil {
			return Clause{}, err
		}
		return Clause{Nested: e}, nil
	}

	if p.tok.kind != tokIdent {
		return Clause{}, &incompleteOrGeneric{src: p.src, pos: p.tok.pos, reason: "expected a function call or '('"}
	}
	fn, err := p.parseFunction()
	if err != nil {
		return Clause{}, err
	}
	return Clause{Function: fn}, nil
}

// parseFunction implements: function := ident "(" ws arglist ws ")"
func (p *parser) parseFunction() (*Function, error) {
	name := p.tok.text
	namePos := p.tok.pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expect(tokLParen, "expected '(' after function name "+strconv.Quote(name)); err != nil {
		return nil, err
	}

	args, err := p.parseArgList()
	if err != nil {
		return nil, err
	}

	if err := p.expect(tokRParen, "expected ')' to close function call "+strconv.Quote(name)); err != nil {
		return nil, err
	}

	return buildFunction(name, namePos, args)
}

// arg is one raw argument token, tagged by how it was lexed.
type arg struct {
	kind tokenKind
	text string // for tokIdent/tokNumber/tokComparisonOp
	str  string // for tokString
	pos  int
}

func (p *parser) parseArgList() ([]arg, error) {
	var args []arg
	first, err := p.parseArg()
	if err != nil {
		return nil, err
	}
	args = append(args, first)

	for p.tok.kind == tokComma {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, next)
	}
	return args, nil
}

func (p *parser) parseArg() (arg, error) {
	t := p.tok
	switch t.kind {
	case tokString:
		if err := p.advance(); err != nil {
			return arg{}, err
		}
		return arg{kind: tokString, str: t.str, pos: t.pos}, nil
	case tokComparisonOp:
		if err := p.advance(); err != nil {
			return arg{}, err
		}
		return arg{kind: tokComparisonOp, text: t.text, pos: t.pos}, nil
	case tokIdent:
		// A bare hex/decimal literal lexes as an identifier if it starts
		// with a letter (e.g. a hex checksum like "DEADBEEF"); fall through
		// to the shared numeric-literal handling used for tokNumber.
		if err := p.advance(); err != nil {
			return arg{}, err
		}
		return arg{kind: tokNumber, text: t.text, pos: t.pos}, nil
	default:
		return arg{}, &incompleteOrGeneric{src: p.src, pos: t.pos, reason: "expected an argument"}
	}
}

func (p *parser) expect(kind tokenKind, msg string) error {
	if p.tok.kind != kind {
		if p.tok.kind == tokEOF {
			return &incompleteOrGeneric{src: p.src, pos: p.tok.pos, incomplete: true}
		}
		return &incompleteOrGeneric{src: p.src, pos: p.tok.pos, reason: msg}
	}
	return p.advance()
}

// regexMetachars are the characters that, if present in a bare string
// argument, force the argument to be treated as a regex rather than a
// literal name/path. '.' is deliberately excluded: it's near-universal in
// real filenames (extensions) and an anchored regex built from a literal
// dot still matches the literal filename correctly, so excluding it lets
// ordinary paths like "Blank.esm" classify as literal without special-
// casing.
const regexMetachars = `^$|?*+()[]{}`

func looksLikeRegex(s string) bool {
	return strings.ContainsAny(s, regexMetachars)
}

// buildFunction dispatches on the function name and argument shapes to
// build the right Function variant, per §3's Function sum type and §4.D's
// semantics.
func buildFunction(name string, pos int, args []arg) (*Function, error) {
	switch name {
	case "file":
		return build1PathOrRegex(name, pos, args, func(p PathArg) *Function {
			return &Function{Kind: FuncFile, Path: p}
		}, func(r RegexArg) *Function {
			return &Function{Kind: FuncFileRegex, Regex: r}
		})
	case "active":
		return build1PathOrRegex(name, pos, args, func(p PathArg) *Function {
			return &Function{Kind: FuncActive, Path: p}
		}, func(r RegexArg) *Function {
			return &Function{Kind: FuncActiveRegex, Regex: r}
		})
	case "many":
		return build1Regex(name, pos, args, FuncMany)
	case "many_active":
		return build1Regex(name, pos, args, FuncManyActive)
	case "readable":
		return build1Path(name, pos, args, FuncReadable)
	case "is_executable":
		return build1Path(name, pos, args, FuncIsExecutable)
	case "is_master":
		return build1Path(name, pos, args, FuncIsMaster)
	case "checksum":
		return buildChecksum(name, pos, args)
	case "file_size":
		return buildFileSize(name, pos, args)
	case "version":
		return buildVersionFn(name, pos, args, FuncVersion)
	case "product_version":
		return buildVersionFn(name, pos, args, FuncProductVersion)
	case "filename_version":
		return buildFilenameVersion(name, pos, args)
	case "description_contains":
		return buildDescriptionContains(name, pos, args)
	default:
		return nil, &incompleteOrGeneric{src: name, pos: pos, reason: "unknown condition function " + strconv.Quote(name)}
	}
}

func wrongArity(name string, pos int, want string) error {
	return &incompleteOrGeneric{pos: pos, reason: "function " + strconv.Quote(name) + " expects " + want}
}

func build1PathOrRegex(name string, pos int, args []arg, asPath func(PathArg) *Function, asRegex func(RegexArg) *Function) (*Function, error) {
	if len(args) != 1 || args[0].kind != tokString {
		return nil, wrongArity(name, pos, "exactly one string argument")
	}
	raw := args[0].str
	if looksLikeRegex(raw) {
		if _, err := compileAnchored(raw); err != nil {
			return nil, err
		}
		return asRegex(RegexArg{Raw: raw}), nil
	}
	return asPath(PathArg{Raw: raw}), nil
}

func build1Regex(name string, pos int, args []arg, kind FuncKind) (*Function, error) {
	if len(args) != 1 || args[0].kind != tokString {
		return nil, wrongArity(name, pos, "exactly one string argument")
	}
	if _, err := compileAnchored(args[0].str); err != nil {
		return nil, err
	}
	return &Function{Kind: kind, Regex: RegexArg{Raw: args[0].str}}, nil
}

func build1Path(name string, pos int, args []arg, kind FuncKind) (*Function, error) {
	if len(args) != 1 || args[0].kind != tokString {
		return nil, wrongArity(name, pos, "exactly one string argument")
	}
	return &Function{Kind: kind, Path: PathArg{Raw: args[0].str}}, nil
}

func buildChecksum(name string, pos int, args []arg) (*Function, error) {
	if len(args) != 2 || args[0].kind != tokString || args[1].kind != tokNumber {
		return nil, wrongArity(name, pos, "a path and a hexadecimal checksum")
	}
	crc, err := strconv.ParseUint(args[1].text, 16, 32)
	if err != nil {
		return nil, &incompleteOrGeneric{pos: args[1].pos, reason: "invalid hexadecimal checksum " + strconv.Quote(args[1].text)}
	}
	return &Function{Kind: FuncChecksum, Path: PathArg{Raw: args[0].str}, CRC: uint32(crc)}, nil
}

func buildFileSize(name string, pos int, args []arg) (*Function, error) {
	if len(args) != 2 || args[0].kind != tokString || args[1].kind != tokNumber {
		return nil, wrongArity(name, pos, "a path and a file size in bytes")
	}
	size, err := strconv.ParseUint(args[1].text, 10, 64)
	if err != nil {
		return nil, &incompleteOrGeneric{pos: args[1].pos, reason: "invalid file size " + strconv.Quote(args[1].text)}
	}
	return &Function{Kind: FuncFileSize, Path: PathArg{Raw: args[0].str}, Size: size}, nil
}

func parseComparisonOp(text string, pos int) (ComparisonOp, error) {
	switch text {
	case "==":
		return OpEq, nil
	case "!=":
		return OpNe, nil
	case "<":
		return OpLt, nil
	case ">":
		return OpGt, nil
	case "<=":
		return OpLe, nil
	case ">=":
		return OpGe, nil
	default:
		return 0, &incompleteOrGeneric{pos: pos, reason: "invalid comparison operator " + strconv.Quote(text)}
	}
}

func buildVersionFn(name string, pos int, args []arg, kind FuncKind) (*Function, error) {
	if len(args) != 3 || args[0].kind != tokString || args[1].kind != tokString || args[2].kind != tokComparisonOp {
		return nil, wrongArity(name, pos, "a path, a version string, and a comparison operator")
	}
	op, err := parseComparisonOp(args[2].text, args[2].pos)
	if err != nil {
		return nil, err
	}
	return &Function{Kind: kind, Path: PathArg{Raw: args[0].str}, Version: version.Parse(args[1].str), Op: op}, nil
}

func buildFilenameVersion(name string, pos int, args []arg) (*Function, error) {
	if len(args) != 3 || args[0].kind != tokString || args[1].kind != tokString || args[2].kind != tokComparisonOp {
		return nil, wrongArity(name, pos, "a regex, a version string, and a comparison operator")
	}
	if _, err := compileCaptureRegex(args[0].str); err != nil {
		return nil, err
	}
	op, err := parseComparisonOp(args[2].text, args[2].pos)
	if err != nil {
		return nil, err
	}
	return &Function{Kind: FuncFilenameVersion, Regex: RegexArg{Raw: args[0].str}, Version: version.Parse(args[1].str), Op: op}, nil
}

func buildDescriptionContains(name string, pos int, args []arg) (*Function, error) {
	if len(args) != 2 || args[0].kind != tokString || args[1].kind != tokString {
		return nil, wrongArity(name, pos, "a path and a regex")
	}
	if _, err := compileAnchored(args[1].str); err != nil {
		return nil, err
	}
	return &Function{Kind: FuncDescriptionContains, Path: PathArg{Raw: args[0].str}, Regex: RegexArg{Raw: args[1].str}}, nil
}

var errNoCaptureGroup = errors.New("filename_version regex must contain exactly one capture group")

// compileCaptureRegex compiles an anchored regex that filename_version
// expects to carry exactly one capture group (the version substring).
func compileCaptureRegex(raw string) (*regexp.Regexp, error) {
	re, err := compileAnchored(raw)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, &cerrors.InvalidRegex{Pattern: raw, Err: errNoCaptureGroup}
	}
	return re, nil
}
