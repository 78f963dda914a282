package external

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/hayroll-dev/hayroll/internal/compilecommand"
	"github.com/hayroll-dev/hayroll/internal/config"
	"github.com/hayroll-dev/hayroll/internal/seeder"
	"github.com/hayroll-dev/hayroll/internal/tempdir"
)

// RunCpp2c shells Maki's analysis driver over compileCommands and returns the
// raw .cpp2c summary text (spec §6's "machine-readable per-invocation and
// per-region summary"), grounded in MakiWrapper.hpp's runCpp2c.
func RunCpp2c(ctx context.Context, tools config.Tools, compileCommands []compilecommand.Command, projDir string, numThreads int) (string, error) {
	if tools.MakiDir == "" {
		return "", herrorsMissingMakiDir()
	}

	ccDir, err := tempdir.New()
	if err != nil {
		return "", err
	}
	defer ccDir.Close()

	ccPath := filepath.Join(ccDir.Path(), "compile_commands.json")
	ccJSON, err := compilecommand.ToJSON(compileCommands)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(ccPath, ccJSON, 0o644); err != nil {
		return "", err
	}

	canonicalProjDir, err := filepath.Abs(projDir)
	if err != nil {
		return "", err
	}

	outDir, err := tempdir.New()
	if err != nil {
		return "", err
	}
	defer outDir.Close()

	script := filepath.Join(tools.MakiDir, "evaluation", "analyze_macro_invocations_in_program.py")
	libcpp2c := filepath.Join(tools.MakiDir, "build", "lib", "libcpp2c.so")

	stdout, stderr, err := run(ctx, "", script,
		libcpp2c, ccPath, canonicalProjDir, outDir.Path(), itoa(numThreads))
	if err != nil {
		return "", err
	}

	resultsPath := filepath.Join(outDir.Path(), "all_results.cpp2c")
	raw, err := os.ReadFile(resultsPath)
	if err != nil || len(raw) == 0 {
		return "", missingOutputErr(script, resultsPath, stdout, stderr)
	}
	return string(raw), nil
}

// RunCpp2cOnCu aggregates each compile command into a single compilation
// unit file (include-rewritten, linemarkers stripped) so the analyzer
// reports locations relative to one file per command, then runs RunCpp2c
// over the rewritten commands, grounded in MakiWrapper.hpp's runCpp2cOnCu.
func RunCpp2cOnCu(ctx context.Context, tools config.Tools, compileCommands []compilecommand.Command, numThreads int) (string, []compilecommand.Command, error) {
	cuDir, err := tempdir.New()
	if err != nil {
		return "", nil, err
	}
	cuDir.Keep() // the CU files are read by the caller after this returns

	newCommands := make([]compilecommand.Command, 0, len(compileCommands))
	for _, cmd := range compileCommands {
		newCmd := cmd.WithUpdatedDirectory(cuDir.Path()).WithUpdatedExtension(".cu.c")
		cuStr, err := RunRewriteIncludesThenStrip(ctx, tools, cmd)
		if err != nil {
			return "", nil, err
		}
		if err := os.WriteFile(newCmd.File, []byte(cuStr), 0o644); err != nil {
			return "", nil, err
		}
		newCommands = append(newCommands, newCmd)
	}

	summary, err := RunCpp2c(ctx, tools, newCommands, cuDir.Path(), numThreads)
	return summary, newCommands, err
}

// ParseCpp2cSummary parses the line-oriented .cpp2c summary format (one
// "Invocation {json}" or "Range {json}" line per reported item; unrelated
// lines are ignored), grounded in MakiSummary.hpp's parseCpp2cSummary.
func ParseCpp2cSummary(cpp2cStr string) ([]seeder.InvocationSummary, []seeder.RangeSummary, error) {
	var invocations []seeder.InvocationSummary
	var ranges []seeder.RangeSummary

	scanner := bufio.NewScanner(strings.NewReader(cpp2cStr))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		firstWord := fields[0]
		if firstWord != "Invocation" && firstWord != "Range" {
			continue
		}

		jsonPos := strings.IndexByte(line, '{')
		if jsonPos < 0 {
			continue
		}
		jsonStr := line[jsonPos:]

		switch firstWord {
		case "Invocation":
			var inv seeder.InvocationSummary
			if err := json.Unmarshal([]byte(jsonStr), &inv); err != nil {
				return nil, nil, err
			}
			invocations = append(invocations, inv)
		case "Range":
			var r seeder.RangeSummary
			if err := json.Unmarshal([]byte(jsonStr), &r); err != nil {
				return nil, nil, err
			}
			ranges = append(ranges, r)
		}
	}
	return invocations, ranges, nil
}
