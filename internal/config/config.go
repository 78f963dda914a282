// Package config loads Hayroll's project configuration: an optional
// .hayroll.kdl project file supplying defaults, overridden by CLI flags
// exactly as the teacher's loadConfigWithOverrides layers flags over
// .lci.kdl (cmd/lci/main.go).
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const defaultHayrollKDLName = ".hayroll.kdl"

// DefaultJobs mirrors HayrollCLI.cpp's clamp(hardware_concurrency, 2, 16).
func DefaultJobs() int {
	n := runtime.NumCPU()
	if n < 2 {
		return 2
	}
	if n > 16 {
		return 16
	}
	return n
}

// Config is the resolved set of options driving one pipeline run (spec §6).
type Config struct {
	ProjectDir string   // -p/--project-dir
	Whitelist  []string // macro names eligible for symbolic execution (empty = all); -w/--whitelist
	Jobs       int      // -j/--jobs
	Inline     bool     // -i/--inline
	Verbosity  int      // count of -v occurrences
	Binary     string   // -b/--binary, empty if not requested
	Tools      Tools    // external collaborator executable locations
}

// Tools names the external collaborator binaries internal/external shells
// out to (spec §6's preprocessor/macro-analyzer/transpiler/reaper/merger/
// cleaner/inliner). original_source/src/*Wrapper.hpp resolve these from a
// CMake-configured header not present in the retrieval pack; the teacher's
// internal/git package shows the idiomatic Go substitute instead (bare
// names resolved against PATH at call time, e.g. exec.Command("git", ...)
// in internal/git/provider.go) — so these default to bare names and are
// only overridden when a project actually needs a pinned path.
type Tools struct {
	ClangExe   string // preprocessor (RewriteIncludesWrapper)
	C2RustExe  string // transpiler (C2RustWrapper)
	ReaperExe  string // post-transpile cleanup (ReaperWrapper/RustRefactorWrapper)
	MergerExe  string // cross-config merge (MergerWrapper/RustRefactorWrapper)
	CleanerExe string // final cleanup pass (CleanerWrapper/RustRefactorWrapper)
	InlinerExe string // inlining pass (RustRefactorWrapper)

	// MakiDir is the root of a Maki checkout: MakiDir/build/lib/libcpp2c.so
	// is the analyzer plugin and
	// MakiDir/evaluation/analyze_macro_invocations_in_program.py drives it
	// (MakiWrapper.hpp's MakiLibcpp2cPath/MakiAnalysisScriptPath). Empty
	// until a .hayroll.kdl tools block sets it (no CLI flag sets it);
	// internal/external returns an ExternalToolError if a run needs it unset.
	MakiDir string
}

// DefaultTools returns the bare-name/PATH-resolved defaults used when no
// .hayroll.kdl overrides them.
func DefaultTools() Tools {
	return Tools{
		ClangExe:   "clang",
		C2RustExe:  "c2rust",
		ReaperExe:  "hayroll-reaper",
		MergerExe:  "hayroll-merger",
		CleanerExe: "hayroll-cleaner",
		InlinerExe: "hayroll-inliner",
	}
}

// Default returns the configuration used when no .hayroll.kdl exists and no
// CLI flags were supplied beyond the required positional arguments.
func Default(projectDir string) *Config {
	return &Config{
		ProjectDir: projectDir,
		Jobs:       DefaultJobs(),
		Tools:      DefaultTools(),
	}
}

// Load resolves the effective configuration for a run: start from
// .hayroll.kdl in projectDir (if present), then let non-zero-valued
// overrides win field by field. overrides carries only the fields the user
// actually passed on the command line; its zero values mean "not set".
func Load(projectDir string, overrides Overrides) (*Config, error) {
	cfg := Default(projectDir)

	kdlPath := filepath.Join(projectDir, defaultHayrollKDLName)
	if _, err := os.Stat(kdlPath); err == nil {
		fromKDL, err := LoadKDL(kdlPath)
		if err != nil {
			return nil, err
		}
		if fromKDL != nil {
			cfg = fromKDL
			cfg.ProjectDir = projectDir
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	applyOverrides(cfg, overrides)
	return cfg, nil
}

// Overrides carries the subset of flags the CLI actually parsed; a field at
// its zero value means "use the KDL/default value instead".
type Overrides struct {
	Whitelist string // path to whitelist JSON, empty = not set
	Jobs      int    // 0 = not set
	Inline    bool
	InlineSet bool
	Verbosity int
	Binary    string
}

func applyOverrides(cfg *Config, o Overrides) {
	if o.Jobs > 0 {
		cfg.Jobs = o.Jobs
	}
	if o.InlineSet {
		cfg.Inline = o.Inline
	}
	if o.Verbosity > 0 {
		cfg.Verbosity = o.Verbosity
	}
	if o.Binary != "" {
		cfg.Binary = o.Binary
	}
	// Whitelist file path is resolved by the caller (cmd/hayroll) since it
	// requires reading a separate JSON file and checking its glob patterns
	// (LoadWhitelist); Load only merges scalar fields sourced from .hayroll.kdl.
	_ = o.Whitelist
}
