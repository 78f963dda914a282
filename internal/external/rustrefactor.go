package external

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hayroll-dev/hayroll/internal/herrors"
	"github.com/hayroll-dev/hayroll/internal/tempdir"
)

const dummyCargoToml = `
[package]
name = "test"
version = "0.1.0"
edition = "2021"

[[bin]]
name = "test"
path = "src/main.rs"
`

// toolConfig names one of the four target-language refactoring passes
// (Reaper/Merger/Cleaner/Inliner), generalized from the four near-duplicate
// original_source/src/{Reaper,Merger,Cleaner}Wrapper.hpp files into the
// single pattern RustRefactorWrapper.hpp itself settled on.
type toolConfig struct {
	toolName       string
	executable     string
	workingDirIndex int
	outputDirIndex  int
	buildArgs       func(tempPaths []string) []string
}

// runTool writes each input string to its own scratch Cargo crate (a dummy
// Cargo.toml plus src/main.rs), shells the configured tool with its working
// directory set to tempPaths[workingDirIndex], and reads back
// inputPaths[outputDirIndex] — every one of the four tools rewrites its
// target file in place (RustRefactorWrapper.hpp's private runTool).
func runTool(ctx context.Context, cfg toolConfig, inputs []string) (string, error) {
	if len(inputs) == 0 {
		return "", fmt.Errorf("external: %s requires at least one input file", cfg.toolName)
	}
	if cfg.buildArgs == nil {
		return "", fmt.Errorf("external: %s configuration missing buildArgs", cfg.toolName)
	}

	tempPaths := make([]string, len(inputs))
	inputPaths := make([]string, len(inputs))
	var dirs []*tempdir.Dir
	defer func() {
		for _, d := range dirs {
			d.Close()
		}
	}()

	for i, input := range inputs {
		dir, err := tempdir.New()
		if err != nil {
			return "", err
		}
		dirs = append(dirs, dir)
		tempPaths[i] = dir.Path()

		if err := os.WriteFile(filepath.Join(dir.Path(), "Cargo.toml"), []byte(dummyCargoToml), 0o644); err != nil {
			return "", err
		}
		srcDir := filepath.Join(dir.Path(), "src")
		if err := os.MkdirAll(srcDir, 0o755); err != nil {
			return "", err
		}
		inputPath := filepath.Join(srcDir, "main.rs")
		if err := os.WriteFile(inputPath, []byte(input), 0o644); err != nil {
			return "", err
		}
		inputPaths[i] = inputPath
	}

	if cfg.workingDirIndex >= len(tempPaths) {
		return "", fmt.Errorf("external: workingDirIndex out of range for %s", cfg.toolName)
	}
	if cfg.outputDirIndex >= len(inputPaths) {
		return "", fmt.Errorf("external: outputDirIndex out of range for %s", cfg.toolName)
	}

	args := cfg.buildArgs(tempPaths)
	stdout, stderr, err := run(ctx, tempPaths[cfg.workingDirIndex], cfg.executable, args...)
	if err != nil {
		return "", err
	}

	outputPath := inputPaths[cfg.outputDirIndex]
	out, err := os.ReadFile(outputPath)
	if err != nil || len(out) == 0 {
		return "", &herrors.ExternalToolError{
			Tool:       cfg.toolName,
			StderrTail: tail(stderr, 4096),
			Underlying: fmt.Errorf("%s produced an empty or missing output file: %s\nstdout:\n%s", cfg.toolName, outputPath, stdout),
		}
	}
	return string(out), nil
}

func singlePathArgs(paths []string) []string { return []string{paths[0]} }

// RunReaper strips the seeded instrumentation back out of a transpiled unit
// that turned out not to need it at runtime, grounded in
// RustRefactorWrapper.hpp's runReaper.
func RunReaper(ctx context.Context, reaperExe string, seededRustStr string) (string, error) {
	cfg := toolConfig{toolName: "Reaper", executable: reaperExe, buildArgs: singlePathArgs}
	return runTool(ctx, cfg, []string{seededRustStr})
}

// RunMerger folds a patch configuration's reaped output into a base
// configuration's, grounded in RustRefactorWrapper.hpp's runMerger.
func RunMerger(ctx context.Context, mergerExe string, reapedRustStrBase, reapedRustStrPatch string) (string, error) {
	cfg := toolConfig{
		toolName: "Merger",
		executable: mergerExe,
		buildArgs: func(paths []string) []string { return []string{paths[0], paths[1]} },
	}
	return runTool(ctx, cfg, []string{reapedRustStrBase, reapedRustStrPatch})
}

// RunInliner inlines the small single-call-site functions the seeding
// process introduced, grounded in RustRefactorWrapper.hpp's runInliner.
func RunInliner(ctx context.Context, inlinerExe string, rustStr string) (string, error) {
	cfg := toolConfig{toolName: "Inliner", executable: inlinerExe, buildArgs: singlePathArgs}
	return runTool(ctx, cfg, []string{rustStr})
}

// RunCleaner runs the final cleanup pass over a fully merged unit, grounded
// in RustRefactorWrapper.hpp's runCleaner.
func RunCleaner(ctx context.Context, cleanerExe string, rustStr string) (string, error) {
	cfg := toolConfig{toolName: "Cleaner", executable: cleanerExe, buildArgs: singlePathArgs}
	return runTool(ctx, cfg, []string{rustStr})
}
