package external

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeCargoTomlsUnionsDependencies(t *testing.T) {
	base := "[package]\nname = \"a\"\nversion = \"0.1.0\"\n\n[dependencies]\nlibc = \"0.2\"\n"
	patch := "[package]\nname = \"b\"\nversion = \"0.1.0\"\n\n[dependencies]\nserde = \"1\"\n"

	merged, err := MergeCargoTomls([]string{base, patch})
	require.NoError(t, err)
	assert.Contains(t, merged, "libc")
	assert.Contains(t, merged, "serde")
}

func TestMergeCargoTomlsLaterOverwritesSameKey(t *testing.T) {
	base := "[dependencies]\nlibc = \"0.2\"\n"
	patch := "[dependencies]\nlibc = \"0.3\"\n"

	merged, err := MergeCargoTomls([]string{base, patch})
	require.NoError(t, err)
	assert.Contains(t, merged, "0.3")
	assert.NotContains(t, merged, "0.2")
}

func TestMergeCargoTomlsEmptyInputReturnsEmpty(t *testing.T) {
	merged, err := MergeCargoTomls(nil)
	require.NoError(t, err)
	assert.Equal(t, "", merged)
}

func TestAddBinEntryAppendsBinTable(t *testing.T) {
	out, err := AddBinEntry("[package]\nname = \"crate\"\n", "myapp", "src/main.rs")
	require.NoError(t, err)
	assert.Contains(t, out, "myapp")
	assert.Contains(t, out, "src/main.rs")
}

func TestAddFeaturesToCargoTomlAddsEachAtomOnce(t *testing.T) {
	out, err := AddFeaturesToCargoToml("[package]\nname = \"crate\"\n", []string{"feat_a", "feat_b"})
	require.NoError(t, err)
	assert.Contains(t, out, "feat_a")
	assert.Contains(t, out, "feat_b")
}

func TestAddFeaturesToCargoTomlNoAtomsIsNoop(t *testing.T) {
	original := "[package]\nname = \"crate\"\n"
	out, err := AddFeaturesToCargoToml(original, nil)
	require.NoError(t, err)
	assert.Equal(t, original, out)
}
