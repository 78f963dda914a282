package macroexpander

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayroll-dev/hayroll/internal/symboltable"
)

func textsOf(toks []symboltable.Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

func TestExpandObjectMacro(t *testing.T) {
	base := symboltable.Define(symboltable.Root(), "FOO", symboltable.Symbol{
		Kind: symboltable.Object,
		Body: Tokenize("1 + 2"),
	})
	out, err := ExpandTokens(Tokenize("FOO * 3"), base)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "+", "2", "*", "3"}, textsOf(out))
}

func TestExpandUnknownIdentifierStaysSymbolic(t *testing.T) {
	out, err := ExpandTokens(Tokenize("BAR"), symboltable.Root())
	require.NoError(t, err)
	assert.Equal(t, []string{"BAR"}, textsOf(out), "an unknown (never defined or undefined) identifier is left symbolic")
}

func TestExpandExplicitlyUndefinedBecomesZero(t *testing.T) {
	base := symboltable.Undef(symboltable.Root(), "BAR")
	out, err := ExpandTokens(Tokenize("BAR"), base)
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, textsOf(out))
}

func TestExpandFunctionLikeMacro(t *testing.T) {
	base := symboltable.Define(symboltable.Root(), "ADD", symboltable.Symbol{
		Kind:   symboltable.Function,
		Params: []string{"a", "b"},
		Body:   Tokenize("(a) + (b)"),
	})
	out, err := ExpandTokens(Tokenize("ADD(1, 2)"), base)
	require.NoError(t, err)
	assert.Equal(t, []string{"(", "1", ")", "+", "(", "2", ")"}, textsOf(out))
}

func TestExpandFunctionLikeMacroNotFollowedByParenIsLiteral(t *testing.T) {
	base := symboltable.Define(symboltable.Root(), "ADD", symboltable.Symbol{
		Kind:   symboltable.Function,
		Params: []string{"a", "b"},
		Body:   Tokenize("(a) + (b)"),
	})
	out, err := ExpandTokens(Tokenize("ADD + 1"), base)
	require.NoError(t, err)
	assert.Equal(t, []string{"ADD", "+", "1"}, textsOf(out))
}

func TestExpandFunctionLikeMacroUnbalancedIsError(t *testing.T) {
	base := symboltable.Define(symboltable.Root(), "ADD", symboltable.Symbol{
		Kind:   symboltable.Function,
		Params: []string{"a", "b"},
		Body:   Tokenize("(a) + (b)"),
	})
	_, err := ExpandTokens(Tokenize("ADD(1, 2"), base)
	require.Error(t, err)
}

func TestExpandRecursiveObjectMacroIsError(t *testing.T) {
	base := symboltable.Define(symboltable.Root(), "LOOP", symboltable.Symbol{
		Kind: symboltable.Object,
		Body: Tokenize("1 + LOOP"),
	})
	_, err := ExpandTokens(Tokenize("LOOP"), base)
	require.Error(t, err)
}

func TestExpandDefinedBareIdentifier(t *testing.T) {
	base := symboltable.Define(symboltable.Root(), "FOO", symboltable.Symbol{Kind: symboltable.Object})
	out, err := ExpandTokens(Tokenize("defined FOO"), base)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, textsOf(out))
}

func TestExpandDefinedParenthesizedIdentifierUnknownStaysSymbolic(t *testing.T) {
	out, err := ExpandTokens(Tokenize("defined(BAR)"), symboltable.Root())
	require.NoError(t, err)
	assert.Equal(t, []string{"defined", "(", "BAR", ")"}, textsOf(out))
}

func TestExpandDefinedUndefinedIdentifierIsZero(t *testing.T) {
	base := symboltable.Undef(symboltable.Root(), "BAR")
	out, err := ExpandTokens(Tokenize("defined(BAR)"), base)
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, textsOf(out))
}

func TestExpandFunctionArgumentsExpandAgainstBaseTable(t *testing.T) {
	base := symboltable.Define(symboltable.Root(), "X", symboltable.Symbol{
		Kind: symboltable.Object,
		Body: Tokenize("42"),
	})
	base = symboltable.Define(base, "ID", symboltable.Symbol{
		Kind:   symboltable.Function,
		Params: []string{"a"},
		Body:   Tokenize("a"),
	})
	out, err := ExpandTokens(Tokenize("ID(X)"), base)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, textsOf(out))
}
