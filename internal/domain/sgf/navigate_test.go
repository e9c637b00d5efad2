package sgf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// forkedTree builds
//
//	root - m1 - m2 - m3 - m4
//	        \    \
//	         v1   w1 - w2
//	               \
//	                x1
//
// where v1 is the second child of m1, w1 the second child of m2, and x1 the
// second child of w1.
type forkedTree struct {
	f              *Forest
	root           NodeID
	m1, m2, m3, m4 NodeID
	v1             NodeID
	w1, w2, x1     NodeID
}

func newForkedTree() forkedTree {
	f := NewForest()
	tr := forkedTree{f: f}
	tr.root = f.NewNode(NoNode).ID
	main := line(f, tr.root, 4)
	tr.m1, tr.m2, tr.m3, tr.m4 = main[0], main[1], main[2], main[3]
	tr.v1 = f.NewNode(tr.m1).ID
	tr.w1 = f.NewNode(tr.m2).ID
	tr.w2 = f.NewNode(tr.w1).ID
	tr.x1 = f.NewNode(tr.w1).ID
	return tr
}

func TestParentAndFirstChild(t *testing.T) {
	tr := newForkedTree()

	id, ok := tr.f.Parent(tr.root)
	assert.False(t, ok)
	assert.Equal(t, tr.root, id)

	id, ok = tr.f.Parent(tr.w1)
	assert.True(t, ok)
	assert.Equal(t, tr.m2, id)

	id, ok = tr.f.FirstChild(tr.m4)
	assert.False(t, ok)
	assert.Equal(t, tr.m4, id)

	id, ok = tr.f.FirstChild(tr.m1)
	assert.True(t, ok)
	assert.Equal(t, tr.m2, id)
}

func TestRootAndEnd(t *testing.T) {
	tr := newForkedTree()

	assert.Equal(t, tr.root, tr.f.Root(tr.x1))
	assert.Equal(t, tr.m4, tr.f.End(tr.root))
	assert.Equal(t, tr.w2, tr.f.End(tr.w1))
}

func TestSiblingsCycle(t *testing.T) {
	f := NewForest()
	root := f.NewNode(NoNode).ID
	a := f.NewNode(root).ID
	b := f.NewNode(root).ID
	c := f.NewNode(root).ID

	id, ok := f.NextSibling(c)
	assert.True(t, ok)
	assert.Equal(t, a, id)

	id, ok = f.PrevSibling(a)
	assert.True(t, ok)
	assert.Equal(t, c, id)

	id, _ = f.NextSibling(a)
	assert.Equal(t, b, id)

	only := f.NewNode(b).ID
	id, ok = f.NextSibling(only)
	assert.False(t, ok)
	assert.Equal(t, only, id)

	_, ok = f.PrevSibling(root)
	assert.False(t, ok)
}

func TestReturnToMainLine(t *testing.T) {
	tr := newForkedTree()

	id, ok := tr.f.ReturnToMainLine(tr.x1)
	assert.True(t, ok)
	assert.Equal(t, tr.m2, id)

	id, ok = tr.f.ReturnToMainLine(tr.v1)
	assert.True(t, ok)
	assert.Equal(t, tr.m1, id)

	id, ok = tr.f.ReturnToMainLine(tr.m3)
	assert.False(t, ok)
	assert.Equal(t, tr.m3, id)
}

func TestReturnToVariationStart(t *testing.T) {
	tr := newForkedTree()

	id, ok := tr.f.ReturnToVariationStart(tr.w2)
	assert.False(t, ok)
	assert.Equal(t, tr.w2, id, "w2 is already the first node under the w1 fork")

	id, ok = tr.f.ReturnToVariationStart(tr.m4)
	assert.True(t, ok)
	assert.Equal(t, tr.m3, id)

	id, ok = tr.f.ReturnToVariationStart(tr.m1)
	assert.True(t, ok)
	assert.Equal(t, tr.root, id)
}

func TestForks(t *testing.T) {
	tr := newForkedTree()

	id, ok := tr.f.PreviousFork(tr.x1)
	assert.True(t, ok)
	assert.Equal(t, tr.w1, id)

	id, ok = tr.f.PreviousFork(tr.w1)
	assert.True(t, ok)
	assert.Equal(t, tr.m2, id)

	id, ok = tr.f.PreviousFork(tr.m1)
	assert.False(t, ok, "the fork itself is not a strict ancestor")
	assert.Equal(t, tr.m1, id)

	id, ok = tr.f.NextFork(tr.root)
	assert.True(t, ok)
	assert.Equal(t, tr.m1, id)

	id, ok = tr.f.NextFork(tr.m1)
	assert.True(t, ok)
	assert.Equal(t, tr.m2, id)

	id, ok = tr.f.NextFork(tr.m2)
	assert.False(t, ok)
	assert.Equal(t, tr.m2, id)
}

func TestPromoteToMainLine(t *testing.T) {
	f := NewForest()
	root := f.NewNode(NoNode).ID
	a := f.NewNode(root).ID
	b := f.NewNode(root).ID
	c := f.NewNode(root).ID
	c1 := f.NewNode(c).ID
	c2 := f.NewNode(c).ID

	require.True(t, f.PromoteToMainLine(c2))

	assert.Equal(t, []NodeID{c, a, b}, f.Node(root).Children)
	assert.Equal(t, []NodeID{c2, c1}, f.Node(c).Children)
	assert.Equal(t, c2, f.End(root))
	assert.Equal(t, 6, f.Count(root), "promotion never detaches")
	assertDepths(t, f)

	assert.False(t, f.PromoteToMainLine(c2))
}

func TestDetach(t *testing.T) {
	tr := newForkedTree()

	parent, ok := tr.f.Detach(tr.w1)
	require.True(t, ok)
	assert.Equal(t, tr.m2, parent)

	w1 := tr.f.Node(tr.w1)
	assert.True(t, w1.IsRoot())
	assert.Equal(t, 0, w1.Depth)
	assert.Equal(t, 1, tr.f.Node(tr.w2).Depth)
	assert.Equal(t, []NodeID{tr.m3}, tr.f.Node(tr.m2).Children)
	assertDepths(t, tr.f)

	_, ok = tr.f.Detach(tr.root)
	assert.False(t, ok)
}

func TestDeleteRootDetachesChildren(t *testing.T) {
	tr := newForkedTree()

	id, ok := tr.f.Delete(tr.root)
	require.True(t, ok)
	assert.Equal(t, tr.root, id)
	assert.Empty(t, tr.f.Node(tr.root).Children)
	assert.True(t, tr.f.Node(tr.m1).IsRoot())

	id, ok = tr.f.Delete(tr.x1)
	require.True(t, ok)
	assert.Equal(t, tr.w1, id)

	_, ok = tr.f.Delete(tr.x1)
	assert.False(t, ok, "a childless root has nothing to delete")
}

func TestDeleteOtherLines(t *testing.T) {
	tr := newForkedTree()

	require.True(t, tr.f.DeleteOtherLines(tr.x1))

	var main []NodeID
	for n := tr.f.Node(tr.root); ; {
		main = append(main, n.ID)
		assert.LessOrEqual(t, len(n.Children), 1)
		if len(n.Children) == 0 {
			break
		}
		n = tr.f.Node(n.Children[0])
	}
	assert.Equal(t, []NodeID{tr.root, tr.m1, tr.m2, tr.w1, tr.x1}, main)
	assert.True(t, tr.f.Node(tr.m3).IsRoot())
	assert.True(t, tr.f.Node(tr.v1).IsRoot())
	assert.True(t, tr.f.Node(tr.w2).IsRoot())
	assertDepths(t, tr.f)

	assert.False(t, tr.f.DeleteOtherLines(tr.x1))
}
