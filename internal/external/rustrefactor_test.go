package external

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript writes an executable shell script to dir and returns its path,
// exercising runTool's subprocess plumbing against a real (if trivial)
// process the way the teacher's git tests exercise real git invocations.
func writeScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "tool.sh")
	script := "#!/bin/sh\nset -e\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestRunReaperRewritesOutputInPlace(t *testing.T) {
	script := writeScript(t, t.TempDir(), `echo "// reaped" >> "$1/src/main.rs"`)

	out, err := RunReaper(context.Background(), script, "fn main() {}\n")
	require.NoError(t, err)
	assert.Contains(t, out, "fn main() {}")
	assert.Contains(t, out, "// reaped")
}

func TestRunMergerAppendsPatchMarkerToBase(t *testing.T) {
	script := writeScript(t, t.TempDir(), `echo "// merged from patch" >> "$1/src/main.rs"`)

	out, err := RunMerger(context.Background(), script, "fn base() {}\n", "fn patch() {}\n")
	require.NoError(t, err)
	assert.Contains(t, out, "fn base() {}")
	assert.Contains(t, out, "// merged from patch")
}

func TestRunCleanerRewritesOutputInPlace(t *testing.T) {
	script := writeScript(t, t.TempDir(), `echo "// cleaned" >> "$1/src/main.rs"`)

	out, err := RunCleaner(context.Background(), script, "fn main() {}\n")
	require.NoError(t, err)
	assert.Contains(t, out, "// cleaned")
}

func TestRunToolErrorsOnNonZeroExit(t *testing.T) {
	script := writeScript(t, t.TempDir(), `exit 1`)

	_, err := RunReaper(context.Background(), script, "fn main() {}\n")
	assert.Error(t, err)
}

func TestRunToolErrorsOnEmptyOutput(t *testing.T) {
	script := writeScript(t, t.TempDir(), `: > "$1/src/main.rs"`)

	_, err := RunReaper(context.Background(), script, "fn main() {}\n")
	assert.Error(t, err)
}
