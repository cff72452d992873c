package cerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsingErrorMessage(t *testing.T) {
	err := &ParsingError{Expr: `file("Blank.`, Detail: "unterminated string"}
	assert.Contains(t, err.Error(), `An error was encountered while parsing the expression "file(\"Blank."`)
	assert.Equal(t, CodeParsingError, CodeOf(err))
}

func TestIncompleteParseMessage(t *testing.T) {
	err := &IncompleteParse{Expr: "file(", BytesNeeded: 2}
	assert.Contains(t, err.Error(), "needs at least 2")
	assert.Equal(t, CodeIncompleteParse, CodeOf(err))

	err2 := &IncompleteParse{Expr: "file("}
	assert.NotContains(t, err2.Error(), "needs at least")
}

func TestIOErrorUnwrap(t *testing.T) {
	underlying := errors.New("permission denied")
	err := &IOError{Path: "/data/Blank.esm", Err: underlying}
	assert.ErrorIs(t, err, underlying)
	assert.Equal(t, CodeIOError, CodeOf(err))
}

func TestCodeOfDefaultsToGeneric(t *testing.T) {
	assert.Equal(t, CodeGenericError, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeOK, CodeOf(nil))
}

func TestInvalidGameCode(t *testing.T) {
	err := &InvalidGameCode{Value: 42}
	assert.Contains(t, err.Error(), "42")
	assert.Equal(t, CodeInvalidGameCode, CodeOf(err))
}
