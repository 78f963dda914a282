package programpoint

import (
	"testing"

	"github.com/hayroll-dev/hayroll/internal/includetree"
	"github.com/hayroll-dev/hayroll/internal/sourcepos"
	"github.com/stretchr/testify/assert"
)

func TestContainsSameFile(t *testing.T) {
	root := includetree.NewRoot("/a.c")
	outer := Point{IncludeNode: root, Range: sourcepos.ByteRange{Begin: 0, End: 100}}
	inner := Point{IncludeNode: root, Range: sourcepos.ByteRange{Begin: 10, End: 20}}
	assert.True(t, outer.Contains(inner))
	assert.False(t, inner.Contains(outer))
}

func TestContainsCrossFile(t *testing.T) {
	root := includetree.NewRoot("/a.c")
	child := root.AddChild("/b.h", false, 3)
	outer := Point{IncludeNode: root, Range: sourcepos.ByteRange{Begin: 0, End: 100}}
	inner := Point{IncludeNode: child, Range: sourcepos.ByteRange{Begin: 0, End: 5}}
	assert.True(t, outer.Contains(inner))
}

func TestKeyAndHashStable(t *testing.T) {
	root := includetree.NewRoot("/a.c")
	p1 := Point{IncludeNode: root, Range: sourcepos.ByteRange{Begin: 1, End: 2}}
	p2 := Point{IncludeNode: root, Range: sourcepos.ByteRange{Begin: 1, End: 2}}
	assert.Equal(t, Key(p1), Key(p2))
	assert.Equal(t, Hash(p1), Hash(p2))
}

func TestEqualRequiresSameNodeInstance(t *testing.T) {
	root := includetree.NewRoot("/a.c")
	a := root.AddChild("/b.h", false, 1)
	b := root.AddChild("/b.h", false, 2)
	p1 := Point{IncludeNode: a}
	p2 := Point{IncludeNode: b}
	assert.False(t, p1.Equal(p2))
}
