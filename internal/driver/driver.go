// Package driver runs the pipeline (symbolic execution, splitting, external
// collaborators, cross-configuration merge) over a whole compile_commands.json,
// one worker per translation unit (spec §4.9 Driver, §5 Concurrency & Resource
// Model), grounded in original_source/src/Pipeline.hpp's run(). Unlike that
// original (a fixed thread pool looping on an atomic task index), this uses
// golang.org/x/sync/semaphore.Weighted to bound concurrency — the same
// released-permit-per-completed-task idiom used for protoc-style compilation
// graphs elsewhere in the ecosystem — since Go's scheduler already multiplexes
// goroutines onto OS threads for us.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/hayroll-dev/hayroll/internal/compilecommand"
	"github.com/hayroll-dev/hayroll/internal/config"
	"github.com/hayroll-dev/hayroll/internal/external"
	"github.com/hayroll-dev/hayroll/internal/logging"
)

// Options carries the resolved configuration (spec §6) a Run needs beyond the
// compile commands themselves.
type Options struct {
	ProjectDir string
	OutputDir  string
	Whitelist  []string
	Inline     bool
	Binary     string
	Jobs       int
	Tools      config.Tools
}

// UnitFailure records one translation unit's failure without aborting the
// others (spec §7 "Propagation policy").
type UnitFailure struct {
	File string
	Err  error
}

// Summary is the pipeline's end-of-run result (spec §6 "Exit code").
type Summary struct {
	Failures []UnitFailure
}

// OK reports whether every unit succeeded.
func (s *Summary) OK() bool { return len(s.Failures) == 0 }

// Run drives the whole pipeline over commands, writing per-unit artifacts and
// a merged build manifest under opts.OutputDir. It returns an error only for
// failures outside any single unit (output directory setup, final manifest
// assembly); per-unit failures are recorded in the returned Summary instead.
func Run(ctx context.Context, commands []compilecommand.Command, opts Options, log *logging.Logger) (*Summary, error) {
	if log == nil {
		log = logging.Default()
	}
	log = log.With("driver")

	if dirs := compilecommand.Directories(commands); len(dirs) > 1 {
		log.Errorf("compile_commands.json spans %d directories %v; proceeding with project directory %s", len(dirs), dirs, opts.ProjectDir)
	}

	outputDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	if err := os.RemoveAll(outputDir); err != nil {
		return nil, fmt.Errorf("driver: clearing output directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("driver: creating output directory: %w", err)
	}
	opts.OutputDir = outputDir

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = config.DefaultJobs()
	}
	sem := semaphore.NewWeighted(int64(jobs))

	var (
		mu           sync.Mutex
		failures     []UnitFailure
		cargoTomls   []string
		seenAtoms    = map[string]bool{}
		featureAtoms []string
		binaryPath   string
	)

	var wg sync.WaitGroup
	for _, cmd := range commands {
		cmd := cmd
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			failures = append(failures, UnitFailure{File: cmd.File, Err: err})
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func() {
			defer sem.Release(1)
			defer wg.Done()

			cargoToml, atoms, unitBinaryPath, err := runUnit(ctx, cmd, opts, log)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, UnitFailure{File: cmd.File, Err: err})
				log.Errorf("unit %s failed: %v", cmd.File, err)
				return
			}
			if cargoToml != "" {
				cargoTomls = append(cargoTomls, cargoToml)
			}
			for _, a := range atoms {
				if !seenAtoms[a] {
					seenAtoms[a] = true
					featureAtoms = append(featureAtoms, a)
				}
			}
			if binaryPath == "" {
				binaryPath = unitBinaryPath
			}
		}()
	}
	wg.Wait()

	sort.Strings(featureAtoms)

	if len(cargoTomls) > 0 {
		if err := writeManifest(ctx, opts, commands, cargoTomls, featureAtoms, binaryPath); err != nil {
			return nil, err
		}
	}

	if len(failures) > 0 {
		log.Errorf("%d of %d unit(s) failed", len(failures), len(commands))
	}
	return &Summary{Failures: failures}, nil
}

// writeManifest assembles the output root's shared build files (spec §6
// "At the output root: build.<target>, the merged manifest, the library
// entry file, and the toolchain manifest"): one c2rust --emit-build-files
// call over the whole project for build.rs/lib.rs/rust-toolchain.toml, and
// the union of every unit's Cargo.toml plus the discovered feature atoms for
// the final Cargo.toml.
func writeManifest(ctx context.Context, opts Options, commands []compilecommand.Command, cargoTomls, featureAtoms []string, binaryPath string) error {
	build, err := external.GenerateBuildFiles(ctx, opts.Tools, commands)
	if err != nil {
		return fmt.Errorf("driver: generating build files: %w", err)
	}

	merged, err := external.MergeCargoTomls(append([]string{build.CargoToml}, cargoTomls...))
	if err != nil {
		return fmt.Errorf("driver: merging build manifests: %w", err)
	}

	merged, err = external.AddFeaturesToCargoToml(merged, featureAtoms)
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}

	if opts.Binary != "" && binaryPath != "" {
		merged, err = external.AddBinEntry(merged, opts.Binary, binaryPath)
		if err != nil {
			return fmt.Errorf("driver: %w", err)
		}
	}

	writes := map[string]string{
		"build.rs":            build.BuildRs,
		"Cargo.toml":          merged,
		"lib.rs":              build.LibRs,
		"rust-toolchain.toml": build.RustToolchainToml,
	}
	for name, content := range writes {
		if err := os.WriteFile(filepath.Join(opts.OutputDir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("driver: writing %s: %w", name, err)
		}
	}
	return nil
}
