package tempdir

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloseRemovesDirByDefault(t *testing.T) {
	d, err := New()
	require.NoError(t, err)

	_, err = os.Stat(d.Path())
	require.NoError(t, err)

	require.NoError(t, d.Close())

	_, err = os.Stat(d.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestKeepPreventsRemoval(t *testing.T) {
	d, err := New()
	require.NoError(t, err)
	d.Keep()

	require.NoError(t, d.Close())

	_, err = os.Stat(d.Path())
	require.NoError(t, err)
	assert.NoError(t, os.RemoveAll(d.Path()))
}

func TestNewInCreatesUnderParent(t *testing.T) {
	parent, err := New()
	require.NoError(t, err)
	defer parent.Close()

	child, err := NewIn(parent.Path())
	require.NoError(t, err)
	defer child.Close()

	assert.Contains(t, child.Path(), parent.Path())
}
