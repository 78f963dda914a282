package seeder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hayroll-dev/hayroll/internal/linemapper"
	"github.com/hayroll-dev/hayroll/internal/texteditor"
)

// SeedingReport records why one macro invocation was (or wasn't) tagged,
// one entry per invocation the external macro analyzer reported (spec §4.8
// "a Seeding Report explaining which invocations were tagged and why
// others were skipped"), grounded in Seeder.hpp's SeedingReport.
type SeedingReport struct {
	Name         string
	LocInv       string // invocation location (src)
	LocRef       string // definition location (src)
	ASTKind      string
	IsObjectLike bool
	Seeded       bool
	Reasons      []string
	CanBeFn      bool
}

var validASTKinds = map[string]bool{"Expr": true, "Stmt": true, "Stmts": true, "Decl": true, "Decls": true}

// dropInvocationSummary validates one invocation, returning whether it
// should be excluded from tagging and, when the invocation was concrete
// enough to reason about, the report entry explaining the verdict
// (Seeder.hpp's dropInvocationSummary).
func dropInvocationSummary(inv InvocationSummary, inverseLineMap []linemapper.InverseEntry) (drop bool, report *SeedingReport) {
	if inv.DefinitionLocation == "" || inv.InvocationLocation == "" || inv.InvocationLocationEnd == "" {
		return true, nil
	}

	invPath, invLine, _, err := parseLocation(inv.InvocationLocation)
	if err != nil {
		return true, nil
	}
	defPath, defLine, _, err := parseLocation(inv.DefinitionLocation)
	if err != nil {
		return true, nil
	}
	if invPath == defPath {
		if invLine <= 0 || invLine >= len(inverseLineMap) || defLine <= 0 || defLine >= len(inverseLineMap) {
			return true, nil
		}
		invEntry := inverseLineMap[invLine]
		defEntry := inverseLineMap[defLine]
		if invEntry.Node == nil || invEntry.Node.System || defEntry.Node == nil || defEntry.Node.System {
			return true, nil
		}
	}

	if inv.Name == "" {
		return true, nil
	}

	reasons := map[string]struct{}{}
	add := func(r string) { reasons[r] = struct{}{} }

	if inv.ASTKind == "" {
		add("non-syntactic")
	} else if !validASTKinds[inv.ASTKind] {
		add("unsupported AST kind")
	}
	if inv.HasStringification {
		add("uses stringification")
	}
	if inv.HasTokenPasting {
		add("uses token pasting")
	}
	if !inv.IsHygienic {
		add("unhygienic")
	}
	if inv.IsInvokedWhereICERequired {
		add("requires integral constant expression")
	}
	if inv.NumArguments != len(inv.Args) {
		add("argument non-syntactic")
	}
	if strings.Contains(inv.ReturnType, "(") {
		add("unsupported AST kind") // function pointer
	}

	for _, arg := range inv.Args {
		if arg.ASTKind == "" {
			add("argument non-syntactic")
		} else if !validASTKinds[arg.ASTKind] {
			add("argument unsupported AST kind")
		}
		if strings.Contains(arg.Type, "(") {
			add("argument unsupported AST kind")
		}
		if arg.Name == "" {
			add("argument missing name")
		}

		argBeginAvailable := arg.ActualArgLocBegin != ""
		argEndAvailable := arg.ActualArgLocEnd != ""
		if !argBeginAvailable || !argEndAvailable {
			add("argument missing location")
		}

		var argBeginPath, argEndPath string
		if argBeginAvailable {
			if p, _, _, err := parseLocation(arg.ActualArgLocBegin); err != nil {
				add("argument invalid location")
			} else {
				argBeginPath = p
			}
		}
		if argEndAvailable {
			if p, _, _, err := parseLocation(arg.ActualArgLocEnd); err != nil {
				add("argument invalid location")
			} else {
				argEndPath = p
			}
		}
		if argBeginPath != "" && argBeginPath != invPath {
			add("argument path mismatch")
		}
		if argEndPath != "" && argEndPath != invPath {
			add("argument end path mismatch")
		}
	}

	reasonList := make([]string, 0, len(reasons))
	for r := range reasons {
		reasonList = append(reasonList, r)
	}
	sort.Strings(reasonList)

	rep := &SeedingReport{
		Name:         inv.Name,
		LocInv:       translateCuLocOrFallback(inv.InvocationLocation, inverseLineMap),
		LocRef:       translateCuLocOrFallback(inv.DefinitionLocation, inverseLineMap),
		ASTKind:      inv.ASTKind,
		IsObjectLike: inv.IsObjectLike,
		Seeded:       len(reasonList) == 0,
		Reasons:      reasonList,
		CanBeFn:      inv.CanBeFn(),
	}
	return !rep.Seeded, rep
}

// dropRangeSummary validates one conditional range, reporting whether it
// should be excluded from tagging (Seeder.hpp's dropRangeSummary). No
// report is produced for ranges, matching the original's "no report
// needed for now".
func dropRangeSummary(r RangeSummary, inverseLineMap []linemapper.InverseEntry) bool {
	if r.Location == "" || r.LocationEnd == "" || r.ASTKind == "" || r.ExtraInfo.Premise == "" {
		return true
	}
	if !validASTKinds[r.ASTKind] {
		return true
	}
	_, line, _, err := parseLocation(r.Location)
	if err != nil || line <= 0 || line >= len(inverseLineMap) {
		return true
	}
	entry := inverseLineMap[line]
	if entry.Node == nil || entry.Node.System {
		return true
	}
	return false
}

// Run tags srcStr (the compilation unit's source text) with the
// instrumentation tasks collected from the macro analyzer's invocation and
// range summaries, returning the seeded source and a seeding report
// (spec §4.8 Seeder), grounded in Seeder.hpp's run.
func Run(
	invocations []InvocationSummary,
	ranges []RangeSummary,
	srcStr string,
	inverseLineMap []linemapper.InverseEntry,
) (string, []SeedingReport, error) {
	var reports []SeedingReport
	filteredInvocations := invocations[:0:0]
	for _, inv := range invocations {
		drop, rep := dropInvocationSummary(inv, inverseLineMap)
		if rep != nil {
			reports = append(reports, *rep)
		}
		if !drop {
			filteredInvocations = append(filteredInvocations, inv)
		}
	}
	invocations = filteredInvocations

	filteredRanges := ranges[:0:0]
	for _, r := range ranges {
		if !dropRangeSummary(r, inverseLineMap) {
			filteredRanges = append(filteredRanges, r)
		}
	}
	ranges = filteredRanges

	ed := texteditor.New(srcStr)

	for i, inv := range invocations {
		spelling, err := extractSpelling(srcStr, inv.InvocationLocation, inv.InvocationLocationEnd)
		if err != nil {
			return "", nil, fmt.Errorf("seeder: invocation %s: %w", inv.Name, err)
		}
		inv.Spelling = spelling
		for j, arg := range inv.Args {
			argSpelling, err := extractSpelling(srcStr, arg.ActualArgLocBegin, arg.ActualArgLocEnd)
			if err != nil {
				return "", nil, fmt.Errorf("seeder: invocation %s arg %s: %w", inv.Name, arg.Name, err)
			}
			arg.Spelling = argSpelling
			arg.InvocationLocation = inv.InvocationLocation
			inv.Args[j] = arg
		}
		invocations[i] = inv
	}

	for i, r := range ranges {
		spelling, err := extractSpelling(srcStr, r.Location, r.LocationEnd)
		if err != nil {
			return "", nil, fmt.Errorf("seeder: range %s: %w", r.ExtraInfo.Premise, err)
		}
		r.Spelling = spelling
		ranges[i] = r
	}

	var tasks []task
	for _, inv := range invocations {
		ts, err := genInvocationInstrumentationTasks(inv, inverseLineMap)
		if err != nil {
			return "", nil, err
		}
		tasks = append(tasks, ts...)
	}
	for _, r := range ranges {
		ts, err := genConditionalInstrumentationTasks(r, !r.IsInStatementBlock, inverseLineMap)
		if err != nil {
			return "", nil, err
		}
		tasks = append(tasks, ts...)
	}

	tasks = filterOverlappedByErasing(tasks)

	for _, t := range tasks {
		if t.eraseOriginal {
			ed.EraseRange(t.line, t.col, t.lineEnd, t.colEnd)
		}
		if t.edit.Line == -1 {
			ed.Append(t.edit.Text, t.edit.Priority)
			continue
		}
		ed.Add(t.edit)
	}

	return ed.Commit(), reports, nil
}

// extractSpelling returns the CU source text spanning [locBegin, locEnd),
// reading lines directly rather than through the Editor (which mutates
// state as edits queue) — a fresh split of the original text.
func extractSpelling(srcStr, locBegin, locEnd string) (string, error) {
	_, lineBegin, colBegin, err := parseLocation(locBegin)
	if err != nil {
		return "", fmt.Errorf("begin location: %w", err)
	}
	_, lineEnd, colEnd, err := parseLocation(locEnd)
	if err != nil {
		return "", fmt.Errorf("end location: %w", err)
	}
	lines := strings.Split(srcStr, "\n")
	if lineBegin < 1 || lineBegin > len(lines) || lineEnd < 1 || lineEnd > len(lines) {
		return "", fmt.Errorf("location out of range: %s-%s", locBegin, locEnd)
	}
	if lineBegin == lineEnd {
		line := []rune(lines[lineBegin-1])
		b, e := colBegin-1, colEnd-1
		if b < 0 || e > len(line) || b > e {
			return "", fmt.Errorf("column out of range: %s-%s", locBegin, locEnd)
		}
		return string(line[b:e]), nil
	}
	var sb strings.Builder
	first := []rune(lines[lineBegin-1])
	if colBegin-1 <= len(first) {
		sb.WriteString(string(first[colBegin-1:]))
	}
	for l := lineBegin + 1; l < lineEnd; l++ {
		sb.WriteByte('\n')
		sb.WriteString(lines[l-1])
	}
	sb.WriteByte('\n')
	last := []rune(lines[lineEnd-1])
	if colEnd-1 <= len(last) {
		sb.WriteString(string(last[:colEnd-1]))
	}
	return sb.String(), nil
}

// Statistics summarizes reports for logging (spec §4.8's seeding report
// output), condensed from Seeder.hpp's seedingReportStatistics into the
// counts that drive the CLI's summary line rather than every near-duplicate
// breakdown the original computes.
type Statistics struct {
	Total    int
	Seeded   int
	Dropped  int
	CanBeFn  int
	ByReason map[string]int
}

// ComputeStatistics deduplicates reports sharing the same invocation
// location (the analyzer may report the same expansion from more than one
// include path) before tallying.
func ComputeStatistics(reports []SeedingReport) Statistics {
	seen := map[string]bool{}
	var stats Statistics
	stats.ByReason = map[string]int{}
	for _, r := range reports {
		if r.LocInv != "" {
			if seen[r.LocInv] {
				continue
			}
			seen[r.LocInv] = true
		}
		stats.Total++
		if r.Seeded {
			stats.Seeded++
		} else {
			stats.Dropped++
		}
		if r.CanBeFn {
			stats.CanBeFn++
		}
		for _, reason := range r.Reasons {
			stats.ByReason[reason]++
		}
	}
	return stats
}
