package symboltable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupUnknownIsFalse(t *testing.T) {
	_, ok := Lookup(Root(), "X")
	assert.False(t, ok)
}

func TestDefineShadowsParent(t *testing.T) {
	t1 := Define(Root(), "A", Symbol{Kind: Object, Body: []Token{{Text: "1"}}})
	t2 := Define(t1, "A", Symbol{Kind: Object, Body: []Token{{Text: "2"}}})

	sym, ok := Lookup(t2, "A")
	assert.True(t, ok)
	assert.Equal(t, "2", sym.Body[0].Text)

	sym1, ok := Lookup(t1, "A")
	assert.True(t, ok)
	assert.Equal(t, "1", sym1.Body[0].Text, "original table must not mutate")
}

func TestUndefMarksUndefined(t *testing.T) {
	t1 := Define(Root(), "A", Symbol{Kind: Object})
	t2 := Undef(t1, "A")
	sym, ok := Lookup(t2, "A")
	assert.True(t, ok)
	assert.Equal(t, Undefined, sym.Kind)
}

func TestUndefStackBlocksRecursion(t *testing.T) {
	base := Define(Root(), "A", Symbol{Kind: Object, Body: []Token{{Text: "A"}, {Text: "A"}}})
	u := NewUndefStack(base)
	u.PushExpanded("A")
	sym, ok := u.Lookup("A")
	assert.True(t, ok)
	assert.Equal(t, Expanded, sym.Kind)

	u.Pop()
	sym2, ok := u.Lookup("A")
	assert.True(t, ok)
	assert.Equal(t, Object, sym2.Kind)
}

func TestUndefStackFallsThroughToBase(t *testing.T) {
	base := Define(Root(), "B", Symbol{Kind: Object})
	u := NewUndefStack(base)
	u.PushExpanded("A")
	_, ok := u.Lookup("B")
	assert.True(t, ok)
}
