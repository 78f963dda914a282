package seeder

import (
	"fmt"
	"sort"

	"github.com/hayroll-dev/hayroll/internal/linemapper"
)

// RangeSummarySet is the set of conditional-range summaries the external
// macro analyzer reported for one DefineSet's compilation unit.
type RangeSummarySet = []RangeSummary

func baseASTKind(k string) string {
	switch k {
	case "Decl", "Decls":
		return "Decl"
	case "Stmt", "Stmts":
		return "Stmt"
	default:
		return k
	}
}

func astKindsCompatible(a, b string) bool {
	return a == "" || b == "" || baseASTKind(a) == baseASTKind(b)
}

// unifyASTKind merges two ASTKinds reported for the same source range
// across DefineSets, preferring the plural (Stmts/Decls) form when one
// side reports singular and the other plural for the same base kind
// (MakiSummary.hpp's complementRangeSummaries unifyASTKind).
func unifyASTKind(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if a == b {
		return a
	}
	if baseASTKind(a) == a {
		return b // a is singular, prefer plural b
	}
	if baseASTKind(a) == b {
		return a // b is singular, prefer plural a
	}
	return a
}

// CompleteRangeSummaries fills in a degenerate (empty-ASTKind) range
// summary using the non-empty ASTKind another DefineSet's analyzer run
// reported for the same source location, then deduplicates
// placeholder-vs-real summaries grouped by reference location (spec §4
// "cross-DefineSet range-summary complementing"), grounded in
// MakiSummary.hpp's complementRangeSummaries.
func CompleteRangeSummaries(perConfig []RangeSummarySet, lineMaps [][]linemapper.InverseEntry) ([]RangeSummarySet, error) {
	if len(perConfig) != len(lineMaps) {
		return nil, fmt.Errorf("seeder: %d range summary sets but %d line maps", len(perConfig), len(lineMaps))
	}

	commonASTKinds := map[string]string{}
	commonParentSrcLocs := map[string]string{}

	for i, vec := range perConfig {
		lm := lineMaps[i]
		for _, r := range vec {
			srcLoc := cuLocToSrcLoc(r.Location, lm)

			current := commonASTKinds[srcLoc]
			if !astKindsCompatible(current, r.ASTKind) {
				return nil, fmt.Errorf("seeder: inconsistent ASTKind for location %s: %s vs %s", srcLoc, r.ASTKind, current)
			}
			commonASTKinds[srcLoc] = unifyASTKind(current, r.ASTKind)

			currentParentSrcLoc := ""
			if r.ParentLocation != "" {
				currentParentSrcLoc = cuLocToSrcLoc(r.ParentLocation, lm)
			}
			commonParent := commonParentSrcLocs[srcLoc]
			if currentParentSrcLoc != "" && commonParent != "" && currentParentSrcLoc != commonParent {
				return nil, fmt.Errorf("seeder: inconsistent ParentLocation for location %s: %s vs %s", srcLoc, currentParentSrcLoc, commonParent)
			}
			if commonParent == "" {
				commonParentSrcLocs[srcLoc] = currentParentSrcLoc
			}
		}
	}

	complemented := make([]RangeSummarySet, len(perConfig))
	for i, vec := range perConfig {
		lm := lineMaps[i]
		var out []RangeSummary
		for _, r := range vec {
			srcLoc := cuLocToSrcLoc(r.Location, lm)
			commonASTKind := commonASTKinds[srcLoc]
			if commonASTKind == "" {
				continue // every DefineSet reported empty here; drop
			}
			commonParentSrcLoc := commonParentSrcLocs[srcLoc]

			c := r
			c.ASTKind = commonASTKind
			c.IsPlaceholder = r.ASTKind == ""
			c.ParentLocation = commonParentSrcLoc

			switch commonASTKind {
			case "Expr":
				c.ReferenceLocation = commonParentSrcLoc
			default:
				c.ReferenceLocation = cuLnColToSrcLoc(c.ExtraInfo.IfGroupLnColBegin, lm)
			}
			out = append(out, c)
		}
		complemented[i] = out
	}

	final := make([]RangeSummarySet, len(complemented))
	for i, vec := range complemented {
		grouped := map[string][]RangeSummary{}
		for _, r := range vec {
			grouped[r.ReferenceLocation] = append(grouped[r.ReferenceLocation], r)
		}
		refLocs := make([]string, 0, len(grouped))
		for k := range grouped {
			refLocs = append(refLocs, k)
		}
		sort.Strings(refLocs)

		var filtered []RangeSummary
		for _, refLoc := range refLocs {
			group := grouped[refLoc]
			anyNonPlaceholder := false
			for _, r := range group {
				if !r.IsPlaceholder {
					anyNonPlaceholder = true
					break
				}
			}
			if anyNonPlaceholder {
				for _, r := range group {
					if !r.IsPlaceholder {
						filtered = append(filtered, r)
					}
				}
			} else if len(group) > 0 {
				filtered = append(filtered, group[0])
			}
		}
		final[i] = filtered
	}

	return final, nil
}
