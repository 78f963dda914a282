package compilecommand

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJSON = `[
  {
    "arguments": ["cc", "-Iinclude", "-DFOO=1", "-c", "a.c", "-o", "a.o"],
    "directory": "/proj",
    "file": "a.c",
    "output": "a.o"
  }
]`

func TestLoadCanonicalizesPaths(t *testing.T) {
	commands, err := Load([]byte(sampleJSON))
	require.NoError(t, err)
	require.Len(t, commands, 1)

	c := commands[0]
	assert.Equal(t, "/proj", c.Directory)
	assert.Equal(t, "/proj/a.c", c.File)
	assert.Equal(t, "/proj/a.o", c.Output)
}

func TestLoadRejectsMissingRequiredField(t *testing.T) {
	_, err := Load([]byte(`[{"arguments": ["cc"], "file": "a.c"}]`))
	assert.Error(t, err)
}

func TestIncludePathsIncludesDirectoryAndDashI(t *testing.T) {
	commands, err := Load([]byte(sampleJSON))
	require.NoError(t, err)

	paths := commands[0].IncludePaths()
	assert.Contains(t, paths, "/proj")
	assert.Contains(t, paths, "/proj/include")
}

func TestDefinesExtractsDashD(t *testing.T) {
	commands, err := Load([]byte(sampleJSON))
	require.NoError(t, err)
	assert.Equal(t, []string{"FOO=1"}, commands[0].Defines())
}

func TestWithUpdatedDefineSetReplacesDashDArgs(t *testing.T) {
	commands, err := Load([]byte(sampleJSON))
	require.NoError(t, err)

	updated := commands[0].WithUpdatedDefineSet([]string{"-DBAR"})
	assert.NotContains(t, updated.Arguments, "-DFOO=1")
	assert.Contains(t, updated.Arguments, "-DBAR")
	// original is untouched
	assert.Contains(t, commands[0].Arguments, "-DFOO=1")
}

func TestDirectoriesDedups(t *testing.T) {
	commands, err := Load([]byte(sampleJSON))
	require.NoError(t, err)
	commands = append(commands, commands[0])
	assert.Equal(t, []string{"/proj"}, Directories(commands))
}

func TestWithUpdatedExtensionReplacesSuffix(t *testing.T) {
	commands, err := Load([]byte(sampleJSON))
	require.NoError(t, err)

	updated := commands[0].WithUpdatedExtension(".cu.c")
	assert.Equal(t, "/proj/a.cu.c", updated.File)
	assert.Equal(t, "/proj/a.c", commands[0].File) // original untouched
}

func TestToJSONRoundTrips(t *testing.T) {
	commands, err := Load([]byte(sampleJSON))
	require.NoError(t, err)

	out, err := ToJSON(commands)
	require.NoError(t, err)

	reloaded, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, commands, reloaded)
}
