package includetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddChildDistinctInstances(t *testing.T) {
	root := NewRoot("/proj/main.c")
	a := root.AddChild("/proj/b.h", false, 3)
	b := root.AddChild("/proj/b.h", false, 10)
	assert.NotSame(t, a, b, "two include instances of the same path are distinct nodes")
	assert.Equal(t, a, root.ChildAtLine(3))
	assert.Equal(t, b, root.ChildAtLine(10))
}

func TestParentLinkConsistency(t *testing.T) {
	root := NewRoot("/proj/main.c")
	child := root.AddChild("/proj/b.h", false, 3)
	assert.Same(t, root, child.Parent)
	assert.True(t, root.IsAncestorOf(child))
	assert.False(t, child.IsAncestorOf(root))
}

func TestChildrenOrderedByLine(t *testing.T) {
	root := NewRoot("/proj/main.c")
	root.AddChild("/proj/z.h", false, 10)
	root.AddChild("/proj/a.h", false, 2)
	kids := root.Children()
	assert.Equal(t, "/proj/a.h", kids[0].Path)
	assert.Equal(t, "/proj/z.h", kids[1].Path)
}

func TestAncestorDirsLeafFirst(t *testing.T) {
	root := NewRoot("/proj/main.c")
	child := root.AddChild("/proj/sub/b.h", false, 1)
	grandchild := child.AddChild("/proj/sub/deep/c.h", false, 5)
	dirs := grandchild.AncestorDirs()
	assert.Equal(t, []string{"/proj/sub/deep", "/proj/sub", "/proj"}, dirs)
}

func TestPreOrderVisitsAllNodes(t *testing.T) {
	root := NewRoot("/proj/main.c")
	c1 := root.AddChild("/proj/a.h", false, 1)
	c1.AddChild("/proj/b.h", false, 1)
	root.AddChild("/proj/c.h", false, 2)

	var visited []string
	PreOrder(root, func(n *Node) { visited = append(visited, n.Path) })
	assert.Equal(t, []string{"/proj/main.c", "/proj/a.h", "/proj/b.h", "/proj/c.h"}, visited)
}
