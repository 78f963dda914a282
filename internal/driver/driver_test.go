package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hayroll-dev/hayroll/internal/compilecommand"
	"github.com/hayroll-dev/hayroll/internal/config"
	"github.com/hayroll-dev/hayroll/internal/logging"
)

// TestMain verifies the worker pool's goroutines never leak past Run
// returning, the same guard the teacher applies to its own concurrent
// package.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func writeExecutable(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	script := "#!/bin/sh\nset -e\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
}

// fakeClangScript stands in for a C preprocessor's -frewrite-includes mode:
// it ignores every argument except the -o output path and writes a fixed CU
// body there.
func fakeClangScript(t *testing.T, dir string) string {
	path := filepath.Join(dir, "clang.sh")
	writeExecutable(t, path, `out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-o" ]; then out="$arg"; fi
  prev="$arg"
done
printf 'int x;\n' > "$out"
`)
	return path
}

// fakeMakiDir builds a stand-in Maki checkout whose
// analyze_macro_invocations_in_program.py, invoked positionally as
// (libcpp2c, compile_commands.json, projDir, outDir, numThreads), reports no
// invocations or ranges, matching a macro-free CU.
func fakeMakiDir(t *testing.T, root string) string {
	script := filepath.Join(root, "evaluation", "analyze_macro_invocations_in_program.py")
	writeExecutable(t, script, `outDir="$4"
printf '// no invocations in this unit\n' > "$outDir/all_results.cpp2c"
`)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build", "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "lib", "libcpp2c.so"), []byte{}, 0o644))
	return root
}

// fakeC2RustScript stands in for `c2rust transpile --reorganize-definitions
// --emit-build-files <compile_commands.json> --output-dir <dir>`, writing
// every file either call site (Transpile, GenerateBuildFiles) might read.
func fakeC2RustScript(t *testing.T, dir string) string {
	path := filepath.Join(dir, "c2rust.sh")
	writeExecutable(t, path, `out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "--output-dir" ]; then out="$arg"; fi
  prev="$arg"
done
mkdir -p "$out/src"
printf 'fn main() {\n    let x: i32;\n}\n' > "$out/src/input_seeded_cu.rs"
printf '[package]\nname = "unit"\nversion = "0.1.0"\nedition = "2021"\n\n[dependencies]\nlibc = "0.2"\n' > "$out/Cargo.toml"
printf '// generated build script\n' > "$out/build.rs"
printf '// generated lib entry\n' > "$out/lib.rs"
printf '[toolchain]\nchannel = "nightly"\n' > "$out/rust-toolchain.toml"
`)
	return path
}

// fakeRustRefactorScript stands in for a reaper/merger/cleaner/inliner pass:
// it appends marker to whichever crate directory is passed as its first
// argument's src/main.rs (RustRefactorWrapper.hpp's contract: rewrite the
// target file in place).
func fakeRustRefactorScript(t *testing.T, dir, name, marker string) string {
	path := filepath.Join(dir, name+".sh")
	writeExecutable(t, path, `printf '`+marker+`\n' >> "$1/src/main.rs"
`)
	return path
}

func TestRunEmptyCommandListSucceedsWithoutExternalTools(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "out")
	opts := Options{OutputDir: outputDir, Jobs: 2, Tools: config.DefaultTools()}

	summary, err := Run(context.Background(), nil, opts, logging.Default())
	require.NoError(t, err)
	assert.True(t, summary.OK())

	info, err := os.Stat(outputDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

// TestRunSingleMacroFreeUnitProducesCleanedOutput drives the whole pipeline
// (symbolic execution through cleaner+inliner) over one translation unit with
// no preprocessor conditionals, so the Splitter returns exactly one
// DefineSet and the cross-configuration merge fold never runs — exercising
// every stage except RunMerger, which no test in this file reaches.
func TestRunSingleMacroFreeUnitProducesCleanedOutput(t *testing.T) {
	scratch := t.TempDir()
	toolsDir := filepath.Join(scratch, "tools")

	projDir := filepath.Join(scratch, "proj")
	require.NoError(t, os.MkdirAll(projDir, 0o755))
	mainPath := filepath.Join(projDir, "main.c")
	require.NoError(t, os.WriteFile(mainPath, []byte("int x;\n"), 0o644))

	tools := config.Tools{
		ClangExe:   fakeClangScript(t, toolsDir),
		C2RustExe:  fakeC2RustScript(t, toolsDir),
		ReaperExe:  fakeRustRefactorScript(t, toolsDir, "reaper", "// reaped"),
		MergerExe:  fakeRustRefactorScript(t, toolsDir, "merger", "// merged"),
		CleanerExe: fakeRustRefactorScript(t, toolsDir, "cleaner", "// cleaned"),
		InlinerExe: fakeRustRefactorScript(t, toolsDir, "inliner", "// inlined"),
		MakiDir:    fakeMakiDir(t, filepath.Join(scratch, "maki")),
	}

	cmd := compilecommand.Command{
		Arguments: []string{"cc", "-c", "main.c"},
		Directory: projDir,
		File:      mainPath,
		Output:    "main.o",
	}

	outputDir := filepath.Join(scratch, "out")
	opts := Options{
		ProjectDir: projDir,
		OutputDir:  outputDir,
		Inline:     true,
		Jobs:       2,
		Tools:      tools,
	}

	summary, err := Run(context.Background(), []compilecommand.Command{cmd}, opts, logging.Default())
	require.NoError(t, err)
	require.True(t, summary.OK(), "unexpected unit failures: %+v", summary.Failures)

	unitDir := filepath.Join(outputDir, "main")
	finalBytes, err := os.ReadFile(filepath.Join(unitDir, "main.rs"))
	require.NoError(t, err)
	final := string(finalBytes)
	assert.Contains(t, final, "fn main()")
	assert.Contains(t, final, "// reaped")
	assert.Contains(t, final, "// cleaned")
	assert.Contains(t, final, "// inlined")

	assert.FileExists(t, filepath.Join(unitDir, "main.premise_tree.raw.txt"))
	assert.FileExists(t, filepath.Join(unitDir, "main.premise_tree.txt"))
	assert.FileExists(t, filepath.Join(unitDir, "main.defset.txt"))
	assert.FileExists(t, filepath.Join(unitDir, "main.0.cu.c"))
	assert.FileExists(t, filepath.Join(unitDir, "main.0.cpp2c"))
	assert.FileExists(t, filepath.Join(unitDir, "main.0.cpp2c.ranges.json"))
	assert.FileExists(t, filepath.Join(unitDir, "main.0.seeded.cu.c"))
	assert.FileExists(t, filepath.Join(unitDir, "main.0.Cargo.toml"))
	assert.FileExists(t, filepath.Join(unitDir, "main.0.reaped.rs"))

	assert.FileExists(t, filepath.Join(outputDir, "build.rs"))
	assert.FileExists(t, filepath.Join(outputDir, "lib.rs"))
	assert.FileExists(t, filepath.Join(outputDir, "rust-toolchain.toml"))

	manifest, err := os.ReadFile(filepath.Join(outputDir, "Cargo.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), "libc")
}

func TestUnitStemStripsExtension(t *testing.T) {
	assert.Equal(t, "main", unitStem("/a/b/main.c"))
	assert.Equal(t, "foo.cu", unitStem("/a/foo.cu.c"))
}
