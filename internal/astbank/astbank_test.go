package astbank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddFileAndFind(t *testing.T) {
	bank, err := New()
	require.NoError(t, err)
	defer bank.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.c")
	require.NoError(t, os.WriteFile(path, []byte("#define FOO 1\n"), 0o644))

	tree, src, err := bank.AddFile(path)
	require.NoError(t, err)
	require.NotNil(t, tree)
	require.NotEmpty(t, src)

	found, foundSrc, ok := bank.Find(path)
	require.True(t, ok)
	require.Same(t, tree, found)
	require.Equal(t, src, foundSrc)
}

func TestFindMissingIsFalse(t *testing.T) {
	bank, err := New()
	require.NoError(t, err)
	defer bank.Close()

	_, _, ok := bank.Find("/nonexistent.c")
	require.False(t, ok)
}

func TestAddAnonymousSourceDoesNotAffectPaths(t *testing.T) {
	bank, err := New()
	require.NoError(t, err)
	defer bank.Close()

	tree := bank.AddAnonymousSource([]byte("int x;\n"))
	require.NotNil(t, tree)
	require.Empty(t, bank.Paths())
}

func TestAddFileReplacesPreviousTree(t *testing.T) {
	bank, err := New()
	require.NoError(t, err)
	defer bank.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.c")
	require.NoError(t, os.WriteFile(path, []byte("int x;\n"), 0o644))
	_, _, err = bank.AddFile(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("int y;\n"), 0o644))
	tree2, src2, err := bank.AddFile(path)
	require.NoError(t, err)

	found, foundSrc, ok := bank.Find(path)
	require.True(t, ok)
	require.Same(t, tree2, found)
	require.Equal(t, src2, foundSrc)
}
