// Package programpoint is the (include-tree node, AST byte range) position type
// used throughout the premise tree and splitter (spec §3 Program Point),
// grounded in original_source/src/ProgramPoint.hpp.
package programpoint

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/hayroll-dev/hayroll/internal/includetree"
	"github.com/hayroll-dev/hayroll/internal/sourcepos"
)

// Point pairs an include-tree node with a byte range inside the file it
// names. The zero value is the "no point" sentinel (IncludeNode == nil).
type Point struct {
	IncludeNode *includetree.Node
	Range       sourcepos.ByteRange
}

// IsValid reports whether p names a real location.
func (p Point) IsValid() bool { return p.IncludeNode != nil }

// Equal is structural equality: same include-tree node instance and same
// byte range.
func (p Point) Equal(o Point) bool {
	return p.IncludeNode == o.IncludeNode && p.Range == o.Range
}

// Contains reports whether p encloses o: same include-tree node with p's
// byte range enclosing o's, or o's include node descends from p's through an
// #include directive whose offset (IncludeAt) p's range encloses (a
// cross-file containment through #include).
func (p Point) Contains(o Point) bool {
	if p.IncludeNode == o.IncludeNode {
		return p.Range.Contains(o.Range)
	}
	for c := o.IncludeNode; c != nil && p.IncludeNode != nil; c = c.Parent {
		if c.Parent == p.IncludeNode {
			return p.Range.Contains(sourcepos.ByteRange{Begin: c.IncludeAt, End: c.IncludeAt})
		}
	}
	return false
}

// Parent returns the point that contains p one level up: if p's include
// node has an enclosing include instance, that parent's point at the
// #include directive's offset; otherwise the zero Point.
func (p Point) Parent() Point {
	n := p.IncludeNode
	if n == nil || n.Parent == nil {
		return Point{}
	}
	return Point{IncludeNode: n.Parent, Range: sourcepos.ByteRange{Begin: n.IncludeAt, End: n.IncludeAt}}
}

// Key returns a stable textual map key for p, used wherever a Point needs
// to be a map key without relying on pointer identity (macro-premise maps,
// splitter worklists).
func Key(p Point) string {
	var path string
	if p.IncludeNode != nil {
		path = p.IncludeNode.Path
	}
	return fmt.Sprintf("%s#%d-%d", path, p.Range.Begin, p.Range.End)
}

// Hash returns a stable 64-bit hash of p's Key, for callers that need a
// fixed-size digest instead of the full string key.
func Hash(p Point) uint64 {
	return xxhash.Sum64String(Key(p))
}
