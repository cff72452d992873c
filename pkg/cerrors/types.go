// Package cerrors defines the typed error kinds of the condition interpreter.
//
// Each kind below carries a Code() that maps directly onto the C ABI's
// dense status-code block (see cmd/liblootcondition), so a caller three layers up the stack
// (parser -> evaluator -> FFI facade) can recover the right status without
// string matching.
package cerrors

import (
	"errors"
	"fmt"
)

// Status codes shared with the C ABI. OK/RESULT_TRUE/RESULT_FALSE are success
// values; everything from CodeInvalidArgument up is an error.
const (
	CodeOK               = 0
	CodeResultTrue       = 1
	CodeResultFalse      = 2
	CodeInvalidArgument  = 10
	CodeInvalidGameCode  = 11
	CodeParsingError     = 12
	CodeIncompleteParse  = 13
	CodeIOError          = 14
	CodePeParsingError   = 15
	CodeInvalidUTF8      = 16
	CodeInvalidRegex     = 17
	CodeInvalidPath      = 18
	CodePluginParsing    = 19
	CodeGenericError     = 20
)

// Coder is implemented by every error kind in this package; it reports the
// C-ABI status code the error should surface as.
type Coder interface {
	error
	Code() int
}

// ParsingError reports a malformed condition string. Detail is the
// human-readable reason; Expr is the full condition string that was being
// parsed, matching the FFI's "while parsing the expression ..." convention.
type ParsingError struct {
	Expr   string
	Detail string
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("An error was encountered while parsing the expression %q: %s", e.Expr, e.Detail)
}

// Code implements Coder.
func (e *ParsingError) Code() int { return CodeParsingError }

// IncompleteParse reports that the parser ran out of input mid-token.
// BytesNeeded is the parser's best estimate of how many more bytes would
// complete the token, or 0 when that isn't known.
type IncompleteParse struct {
	Expr        string
	BytesNeeded int
}

func (e *IncompleteParse) Error() string {
	if e.BytesNeeded > 0 {
		return fmt.Sprintf("incomplete condition expression %q: needs at least %d more byte(s)", e.Expr, e.BytesNeeded)
	}
	return fmt.Sprintf("incomplete condition expression %q", e.Expr)
}

// Code implements Coder.
func (e *IncompleteParse) Code() int { return CodeIncompleteParse }

// IOError reports a filesystem failure that is not "path does not exist" --
// permission denied, a read error mid-file, and similar. "Does not exist" is
// never wrapped in this type; callers that hit os.IsNotExist return false,
// not an error.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i/o error accessing %q: %v", e.Path, e.Err)
}

// Code implements Coder.
func (e *IOError) Code() int { return CodeIOError }

// Unwrap supports errors.Is/errors.As against the underlying OS error.
func (e *IOError) Unwrap() error { return e.Err }

// PeParsingError reports a malformed PE file when is_executable or a version
// read expected a well-formed one. Version reads themselves never return
// this -- they swallow PE parse failures as "no version" (see pkg/pe) -- it
// only surfaces from is_executable's open-time failures.
type PeParsingError struct {
	Path string
	Err  error
}

func (e *PeParsingError) Error() string {
	return fmt.Sprintf("failed to parse PE file %q: %v", e.Path, e.Err)
}

// Code implements Coder.
func (e *PeParsingError) Code() int { return CodePeParsingError }

func (e *PeParsingError) Unwrap() error { return e.Err }

// InvalidArgument reports wrong arity, a null pointer, or an out-of-range
// value passed across the FFI boundary.
type InvalidArgument struct {
	Message string
}

func (e *InvalidArgument) Error() string { return e.Message }

// Code implements Coder.
func (e *InvalidArgument) Code() int { return CodeInvalidArgument }

// InvalidGameCode reports a game code outside the closed enumeration of §3.
type InvalidGameCode struct {
	Value int
}

func (e *InvalidGameCode) Error() string {
	return fmt.Sprintf("invalid game code: %d", e.Value)
}

// Code implements Coder.
func (e *InvalidGameCode) Code() int { return CodeInvalidGameCode }

// InvalidRegex reports a regex literal that failed to compile at parse time.
type InvalidRegex struct {
	Pattern string
	Err     error
}

func (e *InvalidRegex) Error() string {
	return fmt.Sprintf("invalid regex %q: %v", e.Pattern, e.Err)
}

// Code implements Coder.
func (e *InvalidRegex) Code() int { return CodeInvalidRegex }

func (e *InvalidRegex) Unwrap() error { return e.Err }

// InvalidPath reports a path argument that cannot be encoded for the host
// filesystem (e.g. embedded NUL bytes).
type InvalidPath struct {
	Path string
}

func (e *InvalidPath) Error() string {
	return fmt.Sprintf("invalid path: %q", e.Path)
}

// Code implements Coder.
func (e *InvalidPath) Code() int { return CodeInvalidPath }

// PluginParsingError reports that the external plugin-record reader (§6.4)
// rejected a file that a predicate needed to treat as a plugin.
type PluginParsingError struct {
	Path string
	Err  error
}

func (e *PluginParsingError) Error() string {
	return fmt.Sprintf("failed to read plugin record %q: %v", e.Path, e.Err)
}

// Code implements Coder.
func (e *PluginParsingError) Code() int { return CodePluginParsing }

func (e *PluginParsingError) Unwrap() error { return e.Err }

// InvalidUTF8 reports a C string argument that is not valid UTF-8.
type InvalidUTF8 struct {
	Argument string
}

func (e *InvalidUTF8) Error() string {
	return fmt.Sprintf("argument %q is not valid UTF-8", e.Argument)
}

// Code implements Coder.
func (e *InvalidUTF8) Code() int { return CodeInvalidUTF8 }

// Generic wraps any other error with CodeGenericError, for the FFI facade's
// catch-all path.
type Generic struct {
	Err error
}

func (e *Generic) Error() string { return e.Err.Error() }

// Code implements Coder.
func (e *Generic) Code() int { return CodeGenericError }

func (e *Generic) Unwrap() error { return e.Err }

// CodeOf extracts the C-ABI status code for any error, defaulting to
// CodeGenericError for errors that don't implement Coder.
func CodeOf(err error) int {
	if err == nil {
		return CodeOK
	}
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return CodeGenericError
}
