package definesets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayroll-dev/hayroll/internal/boolexpr"
)

func TestFromModelSplitsBoolAndIntVars(t *testing.T) {
	m := boolexpr.Model{
		Bools: map[string]bool{"defA": true, "defB": false},
		Ints:  map[string]int{"valN": 3},
	}
	ds := FromModel(m)

	_, hasA := ds.Defines["A"]
	assert.True(t, hasA)
	_, hasB := ds.Defines["B"]
	assert.False(t, hasB)
	require.NotNil(t, ds.Defines["N"])
	assert.Equal(t, 3, *ds.Defines["N"])
}

func TestToOptionsRendersSortedDFlags(t *testing.T) {
	ds := New()
	n := 5
	ds.Defines["N"] = &n
	ds.Defines["A"] = nil

	assert.Equal(t, []string{"-DA", "-DN=5"}, ds.ToOptions())
	assert.Equal(t, "-DA -DN=5", ds.String())
}

func TestSatisfiesTautologyUnderAssignment(t *testing.T) {
	ds := New()
	ds.Defines["A"] = nil // defined, no value

	expr := boolexpr.Var("A")
	assert.True(t, ds.Satisfies(expr))
	assert.False(t, ds.Satisfies(boolexpr.Not(expr)))
}

func TestSatisfiesPinsIntValue(t *testing.T) {
	ds := New()
	v := 1
	ds.Defines["N"] = &v

	expr := boolexpr.Gt(boolexpr.IntVar("N"), boolexpr.IntLit(0))
	assert.True(t, ds.Satisfies(expr))

	other := boolexpr.Eq(boolexpr.IntVar("N"), boolexpr.IntLit(0))
	assert.False(t, ds.Satisfies(other))
}

func TestSatisfiesUndefinedMacroIsFalseForDef(t *testing.T) {
	ds := New()
	assert.False(t, ds.Satisfies(boolexpr.Var("A")))
	assert.True(t, ds.Satisfies(boolexpr.Not(boolexpr.Var("A"))))
}

func TestSummaryFormatsEmptyAndNonEmpty(t *testing.T) {
	assert.Equal(t, "// No DefineSets generated\n", Summary(nil))

	a := New()
	a.Defines["A"] = nil
	out := Summary([]DefineSet{a})
	assert.Contains(t, out, "// DefineSet 0")
	assert.Contains(t, out, "-DA")
}

func TestHashStableForEqualSets(t *testing.T) {
	a := New()
	a.Defines["A"] = nil
	b := New()
	b.Defines["A"] = nil

	assert.Equal(t, a.Hash(), b.Hash())
}
