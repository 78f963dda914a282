// Package includetree models the tree of #include instances reached while
// executing one translation unit (spec §3 Include Tree), grounded in
// original_source/src/IncludeTree.hpp.
package includetree

import (
	"fmt"
	"sort"
)

// Node is one #include instance. A physical path can appear as more than
// one Node (distinct include instances are distinct nodes); Parent is a
// weak back-reference, never owning.
type Node struct {
	Path       string // absolute canonical path
	System     bool   // true for <...> includes
	IncludeAt  uint32 // byte offset in Parent's text at which this include directive appears; sentinel 0 with Parent==nil for the root
	Line       int    // 1-based line of the #include directive in Parent; 0 for the root

	Parent   *Node
	children map[int]*Node // keyed by the include directive's line in this node
}

// NewRoot creates the root node of a translation unit's include tree.
func NewRoot(path string) *Node {
	return &Node{Path: path, children: make(map[int]*Node)}
}

// AddChild records path as included at line within n, returning the new
// child node. A physical path may be added more than once at distinct
// lines; each call allocates a distinct node.
func (n *Node) AddChild(path string, system bool, line int) *Node {
	child := &Node{Path: path, System: system, Line: line, Parent: n, children: make(map[int]*Node)}
	if n.children == nil {
		n.children = make(map[int]*Node)
	}
	n.children[line] = child
	return child
}

// ChildAtLine returns the child included at line, or nil.
func (n *Node) ChildAtLine(line int) *Node {
	return n.children[line]
}

// Children returns this node's children ordered by include line.
func (n *Node) Children() []*Node {
	lines := make([]int, 0, len(n.children))
	for l := range n.children {
		lines = append(lines, l)
	}
	sort.Ints(lines)
	out := make([]*Node, len(lines))
	for i, l := range lines {
		out[i] = n.children[l]
	}
	return out
}

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool { return n.Parent == nil }

// EndsWith reports whether n.Path ends with suffix, a quick filename match
// used when resolving linemarker paths that the host preprocessor may have
// normalized differently than this tree's recorded canonical path.
func (n *Node) EndsWith(suffix string) bool {
	if len(suffix) > len(n.Path) {
		return false
	}
	return n.Path[len(n.Path)-len(suffix):] == suffix
}

// IsAncestorOf reports whether n is a strict ancestor of other.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other.Parent; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

// AncestorDirs returns the directories of every include in n's ancestor
// chain, leaf-first (n's own directory first, root's directory last) —
// the ordered search path later used by the Include Resolver for relative
// #include lookups.
func (n *Node) AncestorDirs() []string {
	var dirs []string
	for cur := n; cur != nil; cur = cur.Parent {
		dirs = append(dirs, dirOf(cur.Path))
	}
	return dirs
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

func (n *Node) String() string {
	if n.IsRoot() {
		return fmt.Sprintf("root(%s)", n.Path)
	}
	return fmt.Sprintf("%s@%s:%d", n.Path, n.Parent.Path, n.Line)
}

// PreOrder visits n and every descendant, root first, in include order.
func PreOrder(n *Node, visit func(*Node)) {
	visit(n)
	for _, c := range n.Children() {
		PreOrder(c, visit)
	}
}
