package premisetree

import "github.com/hayroll-dev/hayroll/internal/boolexpr"

// Refine implements the Premise Refiner (spec §4.5): simplify every node's
// premise with boolexpr.Simplify (which does not distribute And over Or, so
// the result is not necessarily in Or-of-Ands normal form), drop plain
// (non-macro-expansion) children whose complete premise is contradictory,
// collapse a plain child whose own premise is already implied by its
// parent's complete premise (re-parenting its children), and drop
// macro-premise entries already implied by the node's complete premise.
func (n *Node) Refine() {
	n.Premise = boolexpr.Simplify(n.Premise)

	if len(n.MacroPremises) > 0 {
		kept := make(map[string]macroPremiseEntry, len(n.MacroPremises))
		complete := n.CompletePremise()
		for key, entry := range n.MacroPremises {
			if boolexpr.Implies(complete, entry.premise) {
				continue
			}
			entry.premise = boolexpr.Simplify(entry.premise)
			kept[key] = entry
		}
		n.MacroPremises = kept
	}

	var newChildren []*Node
	for _, child := range n.Children {
		child.Refine()

		if !child.IsMacroExpansion() && boolexpr.CheckContradiction(child.CompletePremise()) {
			continue
		}

		if !child.IsMacroExpansion() && boolexpr.Implies(n.CompletePremise(), child.Premise) {
			for _, grandchild := range child.Children {
				grandchild.Parent = n
				newChildren = append(newChildren, grandchild)
			}
			continue
		}

		newChildren = append(newChildren, child)
	}
	n.Children = newChildren
}
