package seeder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hayroll-dev/hayroll/internal/linemapper"
)

// cuLocToSrcLoc maps a "/cuPath:line:col" CU location back to its original
// source location via inverseLineMap, falling back to the CU location
// unchanged if the CU line has no mapping (original_source/src/LineMatcher.hpp's
// cuLocToSrcLoc).
func cuLocToSrcLoc(cuLoc string, inverseLineMap []linemapper.InverseEntry) string {
	_, line, col, err := parseLocation(cuLoc)
	if err != nil || line <= 0 || line >= len(inverseLineMap) {
		return cuLoc
	}
	entry := inverseLineMap[line]
	if entry.Node == nil {
		return cuLoc
	}
	return makeLocation(entry.Node.Path, entry.Line, col)
}

// translateCuLocOrFallback is the same mapping used for reporting purposes:
// it returns "" for an empty cuLoc and cuLoc itself when the location
// cannot be mapped, never an error (Seeder.hpp's translateCuLocOrFallback).
func translateCuLocOrFallback(cuLoc string, inverseLineMap []linemapper.InverseEntry) string {
	if cuLoc == "" {
		return ""
	}
	_, line, col, err := parseLocation(cuLoc)
	if err != nil || line <= 0 || line >= len(inverseLineMap) {
		return cuLoc
	}
	entry := inverseLineMap[line]
	if entry.Node == nil {
		return cuLoc
	}
	return makeLocation(entry.Node.Path, entry.Line, col)
}

// parseLocation splits a "/path/to/file:line:col" string (the format the
// external macro analyzer reports locations in, spec §6) into its parts.
func parseLocation(loc string) (path string, line, col int, err error) {
	idx2 := strings.LastIndexByte(loc, ':')
	if idx2 < 0 {
		return "", 0, 0, fmt.Errorf("seeder: malformed location %q", loc)
	}
	idx1 := strings.LastIndexByte(loc[:idx2], ':')
	if idx1 < 0 {
		return "", 0, 0, fmt.Errorf("seeder: malformed location %q", loc)
	}
	line, err1 := strconv.Atoi(loc[idx1+1 : idx2])
	col, err2 := strconv.Atoi(loc[idx2+1:])
	if err1 != nil || err2 != nil {
		return "", 0, 0, fmt.Errorf("seeder: malformed location %q", loc)
	}
	return loc[:idx1], line, col, nil
}

// parseLnCol splits a "line:col" pair (no filename) as used for the "l:c"
// fields Seeder.hpp calls cuLnCol.
func parseLnCol(lnCol string) (line, col int, err error) {
	idx := strings.IndexByte(lnCol, ':')
	if idx < 0 {
		return 0, 0, fmt.Errorf("seeder: malformed line:col %q", lnCol)
	}
	line, err1 := strconv.Atoi(lnCol[:idx])
	col, err2 := strconv.Atoi(lnCol[idx+1:])
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("seeder: malformed line:col %q", lnCol)
	}
	return line, col, nil
}

// locToLnCol drops the filename from a "/path:line:col" location, leaving
// the "line:col" the CU-local Tag fields carry.
func locToLnCol(loc string) string {
	_, line, col, err := parseLocation(loc)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d:%d", line, col)
}

func makeLocation(path string, line, col int) string {
	return fmt.Sprintf("%s:%d:%d", path, line, col)
}

// cuLnColToSrcLoc maps a "line:col" CU-local pair (no filename) back to a
// full source location via inverseLineMap (LineMatcher.hpp's
// cuLnColToSrcLoc).
func cuLnColToSrcLoc(lnCol string, inverseLineMap []linemapper.InverseEntry) string {
	line, col, err := parseLnCol(lnCol)
	if err != nil || line <= 0 || line >= len(inverseLineMap) {
		return ""
	}
	entry := inverseLineMap[line]
	if entry.Node == nil {
		return ""
	}
	return makeLocation(entry.Node.Path, entry.Line, col)
}
