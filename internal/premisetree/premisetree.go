// Package premisetree is the map from source region to the boolean
// condition under which that region is active (spec §3 Premise Tree, §4.5
// Premise Refiner), grounded in original_source/src/PremiseTree.hpp.
package premisetree

import (
	"fmt"
	"strings"

	"github.com/hayroll-dev/hayroll/internal/boolexpr"
	"github.com/hayroll-dev/hayroll/internal/programpoint"
)

// Node is one region's premise: either a plain #if/#else body node (Premise
// only) or a macro-expansion node (MacroPremises keyed by the program point
// of each definition site the macro could have expanded from, one entry per
// distinct site).
type Node struct {
	Point          programpoint.Point
	Premise        *boolexpr.Expr
	MacroPremises  map[string]macroPremiseEntry // keyed by programpoint.Key(site)

	Parent   *Node
	Children []*Node
}

type macroPremiseEntry struct {
	site    programpoint.Point
	premise *boolexpr.Expr
}

// New creates a root node with no parent.
func New(point programpoint.Point, premise *boolexpr.Expr) *Node {
	return &Node{Point: point, Premise: premise}
}

// AddChild appends a new child under n.
func (n *Node) AddChild(point programpoint.Point, premise *boolexpr.Expr) *Node {
	child := &Node{Point: point, Premise: premise, Parent: n}
	n.Children = append(n.Children, child)
	return child
}

// IsMacroExpansion reports whether n records macro-definition premises
// rather than a single #if/#else body premise.
func (n *Node) IsMacroExpansion() bool { return len(n.MacroPremises) > 0 }

// MacroPremiseEntries returns the premise of every recorded definition site,
// in no particular order, for callers (the Splitter) that need to cover
// each site's condition but have no use for the site's own identity.
func (n *Node) MacroPremiseEntries() []*boolexpr.Expr {
	entries := make([]*boolexpr.Expr, 0, len(n.MacroPremises))
	for _, e := range n.MacroPremises {
		entries = append(entries, e.premise)
	}
	return entries
}

// CompletePremise is the conjunction of n's own premise with every
// ancestor's premise.
func (n *Node) CompletePremise() *boolexpr.Expr {
	complete := n.Premise
	for a := n.Parent; a != nil; a = a.Parent {
		complete = boolexpr.And(complete, a.Premise)
	}
	return complete
}

// DisjunctPremise ORs premise into n's own premise.
func (n *Node) DisjunctPremise(premise *boolexpr.Expr) {
	n.Premise = boolexpr.Or(n.Premise, premise)
}

// ConjunctPremise ANDs premise into n's own premise.
func (n *Node) ConjunctPremise(premise *boolexpr.Expr) {
	n.Premise = boolexpr.And(n.Premise, premise)
}

// DisjunctMacroPremise records premise as (one of) the conditions under
// which the macro expansion recorded at n could have used the definition
// reached at site, ORing into any existing entry for that site.
func (n *Node) DisjunctMacroPremise(site programpoint.Point, premise *boolexpr.Expr) {
	if n.MacroPremises == nil {
		n.MacroPremises = make(map[string]macroPremiseEntry)
	}
	key := programpoint.Key(site)
	if existing, ok := n.MacroPremises[key]; ok {
		n.MacroPremises[key] = macroPremiseEntry{site: site, premise: boolexpr.Or(existing.premise, premise)}
	} else {
		n.MacroPremises[key] = macroPremiseEntry{site: site, premise: premise}
	}
}

// DescendantsPreOrder returns n and every descendant, parent before child.
func (n *Node) DescendantsPreOrder() []*Node {
	out := []*Node{n}
	for _, c := range n.Children {
		out = append(out, c.DescendantsPreOrder()...)
	}
	return out
}

// DescendantsLevelOrder returns n and every descendant, shallowest first.
func (n *Node) DescendantsLevelOrder() []*Node {
	var out []*Node
	queue := []*Node{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)
		queue = append(queue, cur.Children...)
	}
	return out
}

// FindEnclosingNode returns the smallest node (closest to target) whose
// program point contains target.
func (n *Node) FindEnclosingNode(target programpoint.Point) *Node {
	for _, c := range n.Children {
		if c.Point.Contains(target) {
			return c.FindEnclosingNode(target)
		}
	}
	return n
}

func (n *Node) String() string { return n.stringIndented(0) }

func (n *Node) stringIndented(depth int) string {
	indent := strings.Repeat("    ", depth)
	var sb strings.Builder
	if !n.IsMacroExpansion() {
		fmt.Fprintf(&sb, "%s%s %s", indent, programpoint.Key(n.Point), n.Premise)
	} else {
		fmt.Fprintf(&sb, "%sMacro expansion:", indent)
		for _, e := range n.MacroPremises {
			fmt.Fprintf(&sb, "\n%s    %s: %s", indent, programpoint.Key(e.site), e.premise)
		}
	}
	for _, c := range n.Children {
		sb.WriteString("\n")
		sb.WriteString(c.stringIndented(depth + 1))
	}
	return sb.String()
}

// Scribe records premise information as the Symbolic Executor walks a
// translation unit; the caller names each new node's parent explicitly
// (the root when it passes nil).
type Scribe struct {
	root *Node
	byPoint map[string]*Node
}

// NewScribe starts a Scribe rooted at point with premise.
func NewScribe(point programpoint.Point, premise *boolexpr.Expr) *Scribe {
	root := New(point, premise)
	s := &Scribe{root: root, byPoint: map[string]*Node{}}
	s.byPoint[programpoint.Key(point)] = root
	return s
}

// Root returns the tree built so far.
func (s *Scribe) Root() *Node { return s.root }

// ConjunctPremiseOntoRoot ANDs premise onto the root node (used to narrow
// the starting premise before any nodes exist under it).
func (s *Scribe) ConjunctPremiseOntoRoot(premise *boolexpr.Expr) {
	if s == nil {
		return
	}
	s.root.ConjunctPremise(premise)
}

// DisjunctPremise ORs premise onto the existing node at point.
func (s *Scribe) DisjunctPremise(point programpoint.Point, premise *boolexpr.Expr) {
	if s == nil {
		return
	}
	n, ok := s.byPoint[programpoint.Key(point)]
	if !ok {
		return
	}
	n.DisjunctPremise(premise)
}

// AddPremiseOrCreateChild creates a child of parent at point if one does not
// already exist there, otherwise disjuncts premise onto the existing node —
// the common operation the Symbolic Executor performs when it (re-)reaches
// a program point, possibly from more than one in-flight state. The caller
// supplies parent because a Point alone cannot recover its enclosing
// premise-tree node (Point.Parent only models cross-file include nesting,
// not the AST-level nesting the Symbolic Executor already tracks via its
// own call structure).
func (s *Scribe) AddPremiseOrCreateChild(parent *Node, point programpoint.Point, premise *boolexpr.Expr) *Node {
	if s == nil {
		return nil
	}
	key := programpoint.Key(point)
	if existing, ok := s.byPoint[key]; ok {
		existing.DisjunctPremise(premise)
		return existing
	}
	if parent == nil {
		parent = s.root
	}
	child := parent.AddChild(point, premise)
	s.byPoint[key] = child
	return child
}

// RecordMacroExpansion records that the macro expansion reachable at point
// could have used the definition reached at site, under premise, creating
// the node at point (under parent) if this is its first expansion.
func (s *Scribe) RecordMacroExpansion(parent *Node, point programpoint.Point, site programpoint.Point, premise *boolexpr.Expr) {
	if s == nil {
		return
	}
	key := programpoint.Key(point)
	n, ok := s.byPoint[key]
	if !ok {
		if parent == nil {
			parent = s.root
		}
		n = parent.AddChild(point, boolexpr.BoolLit(false))
		s.byPoint[key] = n
	}
	n.DisjunctMacroPremise(site, premise)
}
