package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTranslationUnit(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	defer p.Close()

	tree := p.Parse([]byte("#define FOO 1\nint x = FOO;\n"))
	require.NotNil(t, tree)
	defer tree.Close()

	root := tree.RootNode()
	require.Equal(t, KindTranslationUnit, root.Kind())
	require.Greater(t, int(root.NamedChildCount()), 0)
}

func TestParsePreprocDefNameField(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	defer p.Close()

	src := []byte("#define FOO 1\n")
	tree := p.Parse(src)
	require.NotNil(t, tree)
	defer tree.Close()

	def := tree.RootNode().NamedChild(0)
	require.True(t, IsKind(def, KindPreprocDef))
	name := def.ChildByFieldName(FieldName)
	require.Equal(t, "FOO", Text(name, src))
}
