package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hayroll-dev/hayroll/internal/astbank"
	"github.com/hayroll-dev/hayroll/internal/compilecommand"
	"github.com/hayroll-dev/hayroll/internal/definesets"
	"github.com/hayroll-dev/hayroll/internal/external"
	"github.com/hayroll-dev/hayroll/internal/includeresolver"
	"github.com/hayroll-dev/hayroll/internal/includetree"
	"github.com/hayroll-dev/hayroll/internal/linemapper"
	"github.com/hayroll-dev/hayroll/internal/logging"
	"github.com/hayroll-dev/hayroll/internal/seeder"
	"github.com/hayroll-dev/hayroll/internal/splitter"
	"github.com/hayroll-dev/hayroll/internal/symbolicexecutor"
)

const targetExt = "rs"

// configResult holds one DefineSet's intermediate artifacts, threaded from
// analysis through seeding.
type configResult struct {
	cmd         compilecommand.Command
	cuText      string
	invocations []seeder.InvocationSummary
	ranges      []seeder.RangeSummary
	lineResult  *linemapper.Result
}

// runUnit runs the full per-unit pipeline (spec §4.9) for one compile
// command: symbolic execution, refinement, splitting, then per-DefineSet
// preprocessing/analysis/seeding/transpilation/reaping, folded into one
// merged and cleaned target file. It returns the unit's own (unmerged with
// any other unit's) Cargo.toml, the Rust feature atoms its DefineSets
// introduced, and the output-relative path to its final target file (used
// for the -b/--binary manifest entry).
func runUnit(ctx context.Context, cmd compilecommand.Command, opts Options, log *logging.Logger) (cargoToml string, featureAtoms []string, binaryRelPath string, err error) {
	stem := unitStem(cmd.File)
	ext := filepath.Ext(cmd.File)
	unitLog := log.With(stem)

	unitDir := filepath.Join(opts.OutputDir, stem)
	if err := os.MkdirAll(unitDir, 0o755); err != nil {
		return "", nil, "", err
	}

	srcBytes, err := os.ReadFile(cmd.File)
	if err != nil {
		return "", nil, "", err
	}
	if err := os.WriteFile(filepath.Join(unitDir, filepath.Base(cmd.File)), srcBytes, 0o644); err != nil {
		return "", nil, "", err
	}

	bank, err := astbank.New()
	if err != nil {
		return "", nil, "", err
	}
	defer bank.Close()

	resolver, err := includeresolver.New(opts.Tools.ClangExe, cmd.IncludePaths(), unitLog)
	if err != nil {
		return "", nil, "", err
	}

	ex := symbolicexecutor.New(bank, resolver, opts.Whitelist, unitLog)
	if _, err := ex.Run(ctx, cmd.File); err != nil {
		return "", nil, "", err
	}

	root := ex.Scribe.Root()
	if err := writePlain(unitDir, stem, "premise_tree.raw.txt", root.String()); err != nil {
		return "", nil, "", err
	}
	root.Refine()
	if err := writePlain(unitDir, stem, "premise_tree.txt", root.String()); err != nil {
		return "", nil, "", err
	}

	// The real preprocessor/analyzer/transpiler run immediately below for
	// every returned DefineSet and any failure fails the whole unit at that
	// point, so Splitter's own verification hook (spec §4.6 step 2) would
	// only duplicate that work; pass nil and let the per-configuration loop
	// be the verification.
	sets, err := splitter.Run(ctx, root, cmd, nil)
	if err != nil {
		return "", nil, "", err
	}
	if err := writePlain(unitDir, stem, "defset.txt", definesets.Summary(sets)); err != nil {
		return "", nil, "", err
	}

	configs := make([]configResult, len(sets))
	for i, ds := range sets {
		cfg, err := analyzeConfig(ctx, opts, unitDir, stem, ext, i, cmd, ds, ex.IncludeRoot, resolver)
		if err != nil {
			return "", nil, "", fmt.Errorf("configuration %d: %w", i, err)
		}
		configs[i] = cfg
	}

	rangeSets := make([]seeder.RangeSummarySet, len(configs))
	lineMaps := make([][]linemapper.InverseEntry, len(configs))
	for i, cfg := range configs {
		rangeSets[i] = cfg.ranges
		lineMaps[i] = cfg.lineResult.InverseLineMap
	}
	completed, err := seeder.CompleteRangeSummaries(rangeSets, lineMaps)
	if err != nil {
		return "", nil, "", fmt.Errorf("completing range summaries: %w", err)
	}
	for i := range configs {
		configs[i].ranges = completed[i]
		rangesJSON, err := json.MarshalIndent(configs[i].ranges, "", "  ")
		if err != nil {
			return "", nil, "", err
		}
		if err := writeIndexed(unitDir, stem, i, "cpp2c.ranges.json", string(rangesJSON)); err != nil {
			return "", nil, "", err
		}
	}

	reaped := make([]string, len(configs))
	var unitCargoTomls []string
	seenAtom := map[string]bool{}
	for i, cfg := range configs {
		seededCu, reports, err := seeder.Run(cfg.invocations, cfg.ranges, cfg.cuText, cfg.lineResult.InverseLineMap)
		if err != nil {
			return "", nil, "", fmt.Errorf("configuration %d: seeding: %w", i, err)
		}
		stats := seeder.ComputeStatistics(reports)
		unitLog.Debugf("configuration %d: seeded %d/%d invocations (%d dropped)", i, stats.Seeded, stats.Total, stats.Dropped)
		if err := writeIndexed(unitDir, stem, i, "seeded.cu"+ext, seededCu); err != nil {
			return "", nil, "", err
		}

		rustCode, cfgCargoToml, err := external.Transpile(ctx, opts.Tools, seededCu, cfg.cmd)
		if err != nil {
			return "", nil, "", fmt.Errorf("configuration %d: transpile: %w", i, err)
		}
		if err := writeIndexed(unitDir, stem, i, targetExt, rustCode); err != nil {
			return "", nil, "", err
		}
		if err := writeIndexed(unitDir, stem, i, "Cargo.toml", cfgCargoToml); err != nil {
			return "", nil, "", err
		}
		unitCargoTomls = append(unitCargoTomls, cfgCargoToml)

		reapedCode, err := external.RunReaper(ctx, opts.Tools.ReaperExe, rustCode)
		if err != nil {
			return "", nil, "", fmt.Errorf("configuration %d: reaper: %w", i, err)
		}
		if err := writeIndexed(unitDir, stem, i, "reaped."+targetExt, reapedCode); err != nil {
			return "", nil, "", err
		}
		reaped[i] = reapedCode

		for name := range sets[i].Defines {
			if !seenAtom[name] {
				seenAtom[name] = true
				featureAtoms = append(featureAtoms, name)
			}
		}
	}

	merged := reaped[0]
	for i := 1; i < len(reaped); i++ {
		m, err := external.RunMerger(ctx, opts.Tools.MergerExe, merged, reaped[i])
		if err != nil {
			return "", nil, "", fmt.Errorf("merging configuration %d: %w", i, err)
		}
		merged = m
		if err := writeIndexed(unitDir, stem, i, "merged."+targetExt, merged); err != nil {
			return "", nil, "", err
		}
	}

	final, err := external.RunCleaner(ctx, opts.Tools.CleanerExe, merged)
	if err != nil {
		return "", nil, "", fmt.Errorf("cleaning: %w", err)
	}
	if opts.Inline {
		final, err = external.RunInliner(ctx, opts.Tools.InlinerExe, final)
		if err != nil {
			return "", nil, "", fmt.Errorf("inlining: %w", err)
		}
	}

	finalName := stem + "." + targetExt
	if err := os.WriteFile(filepath.Join(unitDir, finalName), []byte(final), 0o644); err != nil {
		return "", nil, "", err
	}

	mergedUnitCargoToml, err := external.MergeCargoTomls(unitCargoTomls)
	if err != nil {
		return "", nil, "", fmt.Errorf("merging configuration manifests: %w", err)
	}

	return mergedUnitCargoToml, featureAtoms, filepath.Join(stem, finalName), nil
}

// analyzeConfig runs the preprocessor+macro-analyzer over one DefineSet and
// line-maps the resulting compilation-unit text (the first half of spec
// §4.9's per-configuration work; seeding/transpiling/reaping happen once
// every configuration's range summaries have been cross-completed).
func analyzeConfig(
	ctx context.Context,
	opts Options,
	unitDir, stem, ext string,
	index int,
	cmd compilecommand.Command,
	ds definesets.DefineSet,
	includeRoot *includetree.Node,
	resolver *includeresolver.Resolver,
) (configResult, error) {
	cfgCmd := cmd.WithUpdatedDefineSet(ds.ToOptions())

	cpp2cStr, updatedCmds, err := external.RunCpp2cOnCu(ctx, opts.Tools, []compilecommand.Command{cfgCmd}, 1)
	if err != nil {
		return configResult{}, err
	}
	updatedCmd := updatedCmds[0]
	cuBytes, err := os.ReadFile(updatedCmd.File)
	if err != nil {
		return configResult{}, err
	}
	os.RemoveAll(updatedCmd.Directory)
	cuText := string(cuBytes)

	if err := writeIndexed(unitDir, stem, index, "cu"+ext, cuText); err != nil {
		return configResult{}, err
	}
	if err := writeIndexed(unitDir, stem, index, "cpp2c", cpp2cStr); err != nil {
		return configResult{}, err
	}

	invocations, ranges, err := external.ParseCpp2cSummary(cpp2cStr)
	if err != nil {
		return configResult{}, fmt.Errorf("parsing analyzer summary: %w", err)
	}

	lineResult, err := linemapper.Run(ctx, cuText, includeRoot, resolver)
	if err != nil {
		return configResult{}, fmt.Errorf("line mapping: %w", err)
	}

	return configResult{cmd: cfgCmd, cuText: cuText, invocations: invocations, ranges: ranges, lineResult: lineResult}, nil
}

func unitStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func writePlain(unitDir, stem, suffix, content string) error {
	return os.WriteFile(filepath.Join(unitDir, stem+"."+suffix), []byte(content), 0o644)
}

func writeIndexed(unitDir, stem string, index int, suffix, content string) error {
	return os.WriteFile(filepath.Join(unitDir, fmt.Sprintf("%s.%d.%s", stem, index, suffix)), []byte(content), 0o644)
}
