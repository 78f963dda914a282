// Package definesets is a concrete configuration — a mapping from macro
// name to optional integer value (spec §3 DefineSet), grounded in
// original_source/src/DefineSet.hpp. It stands in for that file's z3::model
// constructor and satisfies() method, built on internal/boolexpr's
// finite-domain decision procedure instead of z3.
package definesets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/hayroll-dev/hayroll/internal/boolexpr"
)

// DefineSet maps macro name to an optional integer value. A present key with
// a nil Value means "defined, value irrelevant"; a key's absence means
// "undefined".
type DefineSet struct {
	Defines map[string]*int
}

// New returns an empty DefineSet.
func New() DefineSet {
	return DefineSet{Defines: map[string]*int{}}
}

// FromModel builds a DefineSet from a satisfying boolexpr.Model, the direct
// analogue of DefineSet.hpp's z3::model constructor: every true "def"
// variable becomes a defined-no-value entry, every "val" variable becomes a
// defined-with-value entry (DefineSet.hpp only records int variables
// unconditionally since z3 always assigns integer constants a value in a
// model; this does the same — a val variable absent from the model's
// deciding assignment still gets its zero-valued default below via
// CheckSatisfiable's totalized model).
func FromModel(m boolexpr.Model) DefineSet {
	ds := New()
	for name, defined := range m.Bools {
		if defined {
			ds.Defines[boolexpr.MacroName(name)] = nil
		}
	}
	for name, v := range m.Ints {
		value := v
		ds.Defines[boolexpr.MacroName(name)] = &value
	}
	return ds
}

// ToOptions renders ds as -D compiler flags, one per entry, sorted by macro
// name for determinism.
func (ds DefineSet) ToOptions() []string {
	names := ds.sortedNames()
	options := make([]string, 0, len(names))
	for _, name := range names {
		val := ds.Defines[name]
		if val == nil {
			options = append(options, fmt.Sprintf("-D%s", name))
		} else {
			options = append(options, fmt.Sprintf("-D%s=%d", name, *val))
		}
	}
	return options
}

// String joins ToOptions with single spaces, matching DefineSet.hpp's
// toString().
func (ds DefineSet) String() string {
	return strings.Join(ds.ToOptions(), " ")
}

func (ds DefineSet) sortedNames() []string {
	names := make([]string, 0, len(ds.Defines))
	for name := range ds.Defines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Satisfies reports whether the assignment ds induces makes expr a
// tautology: every free variable of expr is pinned to ds's value for that
// macro (undefined for a "def" variable not present, 0 for a "val" variable
// not present or present without a value), then expr must evaluate to true
// under that one assignment for every remaining (non-)free variable — i.e.
// the implication assigns -> expr is a tautology over whatever variables
// expr still has free (there should be none once every name in expr is
// pinned, but Implies handles it either way).
func (ds DefineSet) Satisfies(expr *boolexpr.Expr) bool {
	assigns := ds.pin(expr)
	return boolexpr.Implies(assigns, expr)
}

// pin builds the conjunction of equalities that fixes every free variable
// appearing in expr to the value ds assigns it (spec §3's satisfies(expr)).
func (ds DefineSet) pin(expr *boolexpr.Expr) *boolexpr.Expr {
	boolVars, intVars := boolexpr.FreeVars(expr)
	var conj []*boolexpr.Expr
	for _, v := range boolVars {
		name := boolexpr.MacroName(v)
		_, defined := ds.Defines[name]
		conj = append(conj, boolexpr.Eq(boolexpr.Var(name), boolexpr.BoolLit(defined)))
	}
	for _, v := range intVars {
		name := boolexpr.MacroName(v)
		value := 0
		if val, ok := ds.Defines[name]; ok && val != nil {
			value = *val
		}
		conj = append(conj, boolexpr.Eq(boolexpr.IntVar(name), boolexpr.IntLit(value)))
	}
	if len(conj) == 0 {
		return boolexpr.BoolLit(true)
	}
	return boolexpr.And(conj...)
}

// Hash returns a stable 64-bit digest of ds's canonical (sorted) form, for
// callers that need a fixed-size key instead of the full string form.
func (ds DefineSet) Hash() uint64 {
	return xxhash.Sum64String(ds.String())
}

// Summary renders the "// DefineSet i" block format Pipeline.hpp writes to
// .defset.txt, one block per entry in sets.
func Summary(sets []DefineSet) string {
	if len(sets) == 0 {
		return "// No DefineSets generated\n"
	}
	var sb strings.Builder
	for i, ds := range sets {
		fmt.Fprintf(&sb, "// DefineSet %d\n%s\n", i, ds)
	}
	return sb.String()
}
