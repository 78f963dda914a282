// Package splitter picks a minimal cover of concrete configurations
// (DefineSets) from a refined premise tree (spec §4.6), grounded in
// original_source/src/Splitter.hpp's reverse-level-order greedy-cover loop
// (worklist.back()/pop_back() over a shallow-first traversal is exactly
// deepest-first). One departure: Splitter.hpp calls node->getDefineSet() on
// every node uniformly, including macro-expansion nodes, because its
// PremiseTree keeps a node's own `premise` field meaningful even for those
// nodes; this package's premisetree.Node instead gives a macro-expansion
// node a false placeholder premise (see that package's doc comment) and
// keeps the real per-definition-site conditions in MacroPremises, so this
// Splitter builds a separate obligation per recorded site instead of one
// obligation per node.
package splitter

import (
	"context"
	"fmt"

	"github.com/hayroll-dev/hayroll/internal/boolexpr"
	"github.com/hayroll-dev/hayroll/internal/compilecommand"
	"github.com/hayroll-dev/hayroll/internal/definesets"
	"github.com/hayroll-dev/hayroll/internal/premisetree"
)

// Verify confirms that ds actually drives the external preprocessor and
// transpiler successfully for cmd (spec §4.6 step 2: "confirm the DefineSet
// actually drives the external preprocessor + transpiler successfully; if
// not, fail loudly"). A nil Verify accepts every candidate, used by tests
// that exercise only the cover algorithm.
type Verify func(ctx context.Context, cmd compilecommand.Command, ds definesets.DefineSet) error

// obligation is one thing the cover must satisfy: a plain node's complete
// premise, or — for a macro-expansion node — one definition site's premise
// narrowed by the node's ancestors (the node's own Premise field is just a
// bookkeeping placeholder for macro-expansion nodes, not a real condition;
// see internal/premisetree's Node.MacroPremises doc comment).
type obligation struct {
	expr *boolexpr.Expr
}

// Run implements the Splitter (spec §4.6): build the work list of every
// tree node's obligation(s) (plain nodes first, then macro-expansion sites,
// each group deepest first), then
// repeatedly pop the front obligation, extract a satisfying model, build a
// DefineSet, verify it, and drop every remaining obligation the new
// DefineSet already satisfies.
func Run(ctx context.Context, root *premisetree.Node, cmd compilecommand.Command, verify Verify) ([]definesets.DefineSet, error) {
	work := obligations(root)

	var result []definesets.DefineSet
	for len(work) > 0 {
		ob := work[0]
		work = work[1:]

		sat, model := boolexpr.CheckSatisfiable(ob.expr)
		if !sat {
			// The refiner guarantees every plain node's complete premise is
			// satisfiable; a macro-premise entry narrowed by ancestor context
			// can still turn out unsatisfiable here (the refiner only drops
			// macro-premise entries already *implied* by context, not ones
			// contradicted by it) — skip it, nothing to cover.
			continue
		}

		ds := definesets.FromModel(model)
		if verify != nil {
			if err := verify(ctx, cmd, ds); err != nil {
				return nil, fmt.Errorf("splitter: configuration %s failed verification: %w", ds, err)
			}
		}
		result = append(result, ds)

		remaining := work[:0]
		for _, w := range work {
			if !ds.Satisfies(w.expr) {
				remaining = append(remaining, w)
			}
		}
		work = remaining
	}

	if len(result) == 0 {
		// Empty translation unit (spec §8 boundary behaviour): the root's
		// complete premise is the tautology ⊤, trivially satisfied by the
		// empty DefineSet.
		result = []definesets.DefineSet{definesets.New()}
	}

	return result, nil
}

// obligations flattens root's tree into the list of boolean obligations the
// cover must satisfy: every plain node's complete premise in reverse level
// order (deepest first), followed by every macro-expansion node's
// per-site obligations, also deepest first.
func obligations(root *premisetree.Node) []obligation {
	levelOrder := root.DescendantsLevelOrder()

	var plain []*premisetree.Node
	for _, n := range levelOrder {
		if !n.IsMacroExpansion() {
			plain = append(plain, n)
		}
	}

	var work []obligation
	for i := len(plain) - 1; i >= 0; i-- {
		n := plain[i]
		work = append(work, obligation{expr: n.CompletePremise()})
	}

	for i := len(levelOrder) - 1; i >= 0; i-- {
		n := levelOrder[i]
		if !n.IsMacroExpansion() {
			continue
		}
		ancestor := ancestorsPremise(n)
		for _, entry := range n.MacroPremiseEntries() {
			work = append(work, obligation{expr: boolexpr.And(ancestor, entry)})
		}
	}

	return work
}

// ancestorsPremise is n's complete premise excluding n's own Premise field
// (which, for a macro-expansion node, is a placeholder rather than a real
// condition).
func ancestorsPremise(n *premisetree.Node) *boolexpr.Expr {
	complete := boolexpr.BoolLit(true)
	for a := n.Parent; a != nil; a = a.Parent {
		complete = boolexpr.And(complete, a.Premise)
	}
	return complete
}
