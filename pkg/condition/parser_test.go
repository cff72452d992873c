package condition

import (
	"testing"

	"github.com/loot/condition-interpreter/pkg/cerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAcceptsWellFormedCondition(t *testing.T) {
	e, err := Parse(`file("Blank.esp") and (not (active("Other.esp")))`)
	require.NoError(t, err)
	require.Len(t, e.Compound, 2)
}

func TestParseUnterminatedStringIsParsingError(t *testing.T) {
	_, err := Parse(`file("Blank.`)
	require.Error(t, err)

	var perr *cerrors.ParsingError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, err.Error(), `An error was encountered while parsing the expression "file(\"Blank."`)
	assert.Equal(t, cerrors.CodeParsingError, cerrors.CodeOf(err))
}

func TestParseDanglingOpenParenIsParsingError(t *testing.T) {
	_, err := Parse(`file("Blank.esp"`)
	require.Error(t, err)

	var perr *cerrors.ParsingError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, cerrors.CodeParsingError, cerrors.CodeOf(err))
}

func TestParseUnknownFunctionIsParsingError(t *testing.T) {
	_, err := Parse(`bogus("Blank.esp")`)
	require.Error(t, err)
	assert.Equal(t, cerrors.CodeParsingError, cerrors.CodeOf(err))
}

func TestParseRejectsTrailingInput(t *testing.T) {
	_, err := Parse(`file("Blank.esp") garbage`)
	require.Error(t, err)
	assert.Equal(t, cerrors.CodeParsingError, cerrors.CodeOf(err))
}
