package macroexpander

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayroll-dev/hayroll/internal/boolexpr"
)

func TestSymbolizeDefinedIdentifier(t *testing.T) {
	e, err := Symbolize(Tokenize("defined(FOO)"))
	require.NoError(t, err)
	assert.Equal(t, "defFOO", e.String())
}

func TestSymbolizeAndOrPrecedence(t *testing.T) {
	e, err := Symbolize(Tokenize("defined(A) || defined(B) && defined(C)"))
	require.NoError(t, err)
	assert.Equal(t, "(defA || (defB && defC))", e.String())
}

func TestSymbolizeComparisonAgainstUnknownMacroValue(t *testing.T) {
	e, err := Symbolize(Tokenize("VERSION >= 3"))
	require.NoError(t, err)
	assert.Equal(t, "(valVERSION >= 3)", e.String())
}

func TestSymbolizeArithmeticAndBitwise(t *testing.T) {
	e, err := Symbolize(Tokenize("(FLAGS & 1) == 0"))
	require.NoError(t, err)
	assert.Equal(t, "((valFLAGS & 1) == 0)", e.String())
}

func TestSymbolizeShiftAndUnary(t *testing.T) {
	e, err := Symbolize(Tokenize("~A << 2"))
	require.NoError(t, err)
	assert.Equal(t, "(~valA << 2)", e.String())
}

func TestSymbolizeNegationOfDefined(t *testing.T) {
	e, err := Symbolize(Tokenize("!defined(FOO)"))
	require.NoError(t, err)
	assert.Equal(t, "!defFOO", e.String())
}

func TestSymbolizeIntegerLiteralBases(t *testing.T) {
	e, err := Symbolize(Tokenize("0x10 == 16"))
	require.NoError(t, err)
	assert.True(t, boolexpr.CheckTautology(e))
}

func TestSymbolizeTrailingGarbageIsError(t *testing.T) {
	_, err := Symbolize(Tokenize("1 1"))
	require.Error(t, err)
}

func TestSymbolizeUnbalancedParenIsError(t *testing.T) {
	_, err := Symbolize(Tokenize("(1 + 2"))
	require.Error(t, err)
}
