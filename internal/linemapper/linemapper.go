// Package linemapper builds the bijection between lines of the
// include-rewritten compilation unit and (file, line) pairs in the original
// sources (spec §4.7 Line Mapper), grounded in
// original_source/src/LineMatcher.hpp. Rather than reparsing the CU text
// through tree-sitter to find preproc_line nodes (as LineMatcher.hpp does),
// this scans linemarker lines directly with a regexp — the marker's text
// shape (`# LINE "PATH" FLAG...`) is fixed by the external preprocessor
// contract (spec §6), so no AST is needed to find them.
package linemapper

import (
	"bufio"
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/hayroll-dev/hayroll/internal/includeresolver"
	"github.com/hayroll-dev/hayroll/internal/includetree"
)

// InverseEntry names the (include-tree node, original source line) a CU
// line originated from.
type InverseEntry struct {
	Node *includetree.Node
	Line int
}

// Result is the Line Mapper's two output structures (spec §4.7).
type Result struct {
	// LineMap[node] is indexed by original-source line, giving the
	// corresponding CU line (0 for unmapped).
	LineMap map[*includetree.Node][]int
	// InverseLineMap is indexed by CU line.
	InverseLineMap []InverseEntry
}

var linemarkerRe = regexp.MustCompile(`^# (\d+) "([^"]*)"((?: \d+)*)\s*$`)

type linemarker struct {
	cuLine  int // 1-based CU line this marker occupies
	srcLine int
	path    string
	flag    int
	hasFlag bool
}

// scanLinemarkers finds every linemarker directive in cuText, in document
// order, recording the CU line it appears on.
func scanLinemarkers(cuText string) []linemarker {
	var out []linemarker
	scanner := bufio.NewScanner(strings.NewReader(cuText))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	cuLine := 0
	for scanner.Scan() {
		cuLine++
		m := linemarkerRe.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		srcLine, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		lm := linemarker{cuLine: cuLine, srcLine: srcLine, path: m[2]}
		if flags := strings.Fields(m[3]); len(flags) > 0 {
			if f, err := strconv.Atoi(flags[0]); err == nil {
				lm.flag = f
				lm.hasFlag = true
			}
		}
		out = append(out, lm)
	}
	return out
}

// Run implements the Line Mapper (spec §4.7): scan cuText's linemarkers in
// document order, filling in the line map and its inverse between each
// adjacent pair, and following flag-1/flag-2 markers into/out of root's
// include-tree children.
func Run(ctx context.Context, cuText string, root *includetree.Node, resolver *includeresolver.Resolver) (*Result, error) {
	markers := scanLinemarkers(cuText)
	cuTotalLines := strings.Count(cuText, "\n")
	if !strings.HasSuffix(cuText, "\n") && len(cuText) > 0 {
		cuTotalLines++
	}

	lineMap := map[*includetree.Node][]int{}
	inverse := make([]InverseEntry, cuTotalLines+1)

	current := root
	var last *linemarker

	for i := 0; i <= len(markers); i++ {
		var this *linemarker
		if i < len(markers) {
			m := markers[i]
			this = &m
		}

		if last == nil {
			last = this
			continue
		}

		lastCanonical, err := resolver.ResolveUserInclude(ctx, last.path, current.AncestorDirs())
		sameFile := err == nil && lastCanonical == current.Path
		if sameFile {
			lastCuLine := last.cuLine
			thisCuLine := cuTotalLines
			if this != nil {
				thisCuLine = this.cuLine
			}

			lines := growLineMap(lineMap, current, last.srcLine+(thisCuLine-lastCuLine))
			for s, t := last.srcLine, lastCuLine+1; t <= thisCuLine; s, t = s+1, t+1 {
				lines[s] = t
				inverse[t] = InverseEntry{Node: current, Line: s}
			}
		}

		if this == nil {
			break
		}

		if sameFile && this.hasFlag {
			if thisCanonical, err := resolver.ResolveUserInclude(ctx, this.path, current.AncestorDirs()); err == nil {
				switch this.flag {
				case 1: // descend into a child whose #include sits on last.srcLine
					if child := current.ChildAtLine(last.srcLine); child != nil && child.Path == thisCanonical {
						current = child
					}
				case 2: // ascend back to the parent
					if current.Parent != nil && current.Parent.Path == thisCanonical {
						current = current.Parent
					}
				}
			}
		}

		last = this
	}

	for node, lines := range lineMap {
		end := len(lines)
		for end > 0 && lines[end-1] == 0 {
			end--
		}
		lineMap[node] = lines[:end]
	}

	return &Result{LineMap: lineMap, InverseLineMap: inverse}, nil
}

// StripLinemarkers blanks every linemarker line in cuText to spaces,
// preserving line count and every other line's column layout, so a CU
// string can be handed to a tool (the macro analyzer, the transpiler) that
// has no use for the markers but whose location reporting must still line
// up 1:1 with cuText (original_source/src/LinemarkerEraser.hpp, ported here
// rather than as its own package since it shares this package's linemarker
// regexp).
func StripLinemarkers(cuText string) string {
	lines := strings.Split(cuText, "\n")
	for i, line := range lines {
		if linemarkerRe.MatchString(line) {
			lines[i] = strings.Repeat(" ", len(line))
		}
	}
	return strings.Join(lines, "\n")
}

// growLineMap ensures lineMap[node] has at least n+1 entries, doubling from
// 1024 as LineMatcher.hpp does, and returns the (possibly grown) slice.
func growLineMap(lineMap map[*includetree.Node][]int, node *includetree.Node, n int) []int {
	lines := lineMap[node]
	if len(lines) == 0 {
		lines = make([]int, 1024)
	}
	for len(lines) <= n {
		lines = append(lines, make([]int, len(lines))...)
	}
	lineMap[node] = lines
	return lines
}
