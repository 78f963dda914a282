package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestNewAppRejectsWrongPositionalCount(t *testing.T) {
	var verboseCount int
	app := newApp(&verboseCount)
	err := app.Run([]string{"hayroll", "only-one-arg"})
	require.Error(t, err)

	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
}

func TestNewAppTranspileRequiresOutputDir(t *testing.T) {
	var verboseCount int
	app := newApp(&verboseCount)
	err := app.Run([]string{"hayroll", "transpile", "compile_commands.json"})
	require.Error(t, err)
}

// TestRunPipelineEndToEnd drives the default invocation form through a
// genuine compile_commands.json and the same fake-executable-script
// collaborators internal/driver's own tests use, verifying the CLI layer
// wires flags into driver.Options correctly (the pipeline internals
// themselves are exercised by internal/driver's tests).
func TestRunPipelineEndToEnd(t *testing.T) {
	scratch := t.TempDir()
	toolsDir := filepath.Join(scratch, "tools")

	projDir := filepath.Join(scratch, "proj")
	require.NoError(t, os.MkdirAll(projDir, 0o755))
	mainPath := filepath.Join(projDir, "main.c")
	require.NoError(t, os.WriteFile(mainPath, []byte("int x;\n"), 0o644))

	writeScript(t, filepath.Join(toolsDir, "clang.sh"), `out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-o" ]; then out="$arg"; fi
  prev="$arg"
done
printf 'int x;\n' > "$out"
`)
	writeScript(t, filepath.Join(toolsDir, "c2rust.sh"), `out=""
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
	for _, name := range []string{"reaper", "merger", "cleaner", "inliner"} {
		writeScript(t, filepath.Join(toolsDir, name+".sh"), `printf '// `+name+`\n' >> "$1/src/main.rs"
`)
	}
	makiRoot := filepath.Join(scratch, "maki")
	writeScript(t, filepath.Join(makiRoot, "evaluation", "analyze_macro_invocations_in_program.py"), `outDir="$4"
printf '// no invocations in this unit\n' > "$outDir/all_results.cpp2c"
`)
	require.NoError(t, os.MkdirAll(filepath.Join(makiRoot, "build", "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(makiRoot, "build", "lib", "libcpp2c.so"), []byte{}, 0o644))

	kdl := "tools {\n" +
		"    clang \"" + filepath.Join(toolsDir, "clang.sh") + "\"\n" +
		"    c2rust \"" + filepath.Join(toolsDir, "c2rust.sh") + "\"\n" +
		"    reaper \"" + filepath.Join(toolsDir, "reaper.sh") + "\"\n" +
		"    merger \"" + filepath.Join(toolsDir, "merger.sh") + "\"\n" +
		"    cleaner \"" + filepath.Join(toolsDir, "cleaner.sh") + "\"\n" +
		"    inliner \"" + filepath.Join(toolsDir, "inliner.sh") + "\"\n" +
		"    maki_dir \"" + makiRoot + "\"\n" +
		"}\n"
	require.NoError(t, os.WriteFile(filepath.Join(projDir, ".hayroll.kdl"), []byte(kdl), 0o644))

	compileCommands := `[{"arguments":["cc","-c","main.c"],"directory":"` + projDir + `","file":"` + mainPath + `","output":"main.o"}]`
	compileCommandsPath := filepath.Join(scratch, "compile_commands.json")
	require.NoError(t, os.WriteFile(compileCommandsPath, []byte(compileCommands), 0o644))

	outputDir := filepath.Join(scratch, "out")

	var verboseCount int
	app := newApp(&verboseCount)
	err := app.Run([]string{"hayroll", "-i", compileCommandsPath, outputDir})
	require.NoError(t, err)

	final, err := os.ReadFile(filepath.Join(outputDir, "main", "main.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(final), "fn main()")
	assert.Contains(t, string(final), "// inliner")
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nset -e\n"+body+"\n"), 0o755))
}
