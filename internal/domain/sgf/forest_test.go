package sgf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kifu/internal/domain"
)

// line appends a chain of n nodes below parent and returns their IDs.
func line(f *Forest, parent NodeID, n int) []NodeID {
	ids := make([]NodeID, 0, n)
	for i := 0; i < n; i++ {
		node := f.NewNode(parent)
		ids = append(ids, node.ID)
		parent = node.ID
	}
	return ids
}

func assertDepths(t *testing.T, f *Forest) {
	t.Helper()
	for _, root := range f.Roots() {
		f.Walk(root, func(n *Node) bool {
			assert.Equal(t, len(f.Path(n.ID))-1, n.Depth, "depth of node %d", n.ID)
			if n.Parent != NoNode {
				assert.Contains(t, f.Node(n.Parent).Children, n.ID)
			}
			return true
		})
	}
}

func TestNodeIDsAreUniqueAndIncreasing(t *testing.T) {
	f := NewForest()
	a := f.NewNode(NoNode)
	b := f.NewNode(a.ID)
	other := NewForest().NewNode(NoNode)

	assert.Greater(t, b.ID, a.ID)
	assert.Greater(t, other.ID, b.ID)
	assert.NotEqual(t, NoNode, a.ID)
}

func TestNewNodeLinksParent(t *testing.T) {
	f := NewForest()
	root := f.NewNode(NoNode)
	child := f.NewNode(root.ID)

	assert.True(t, root.IsRoot())
	assert.Equal(t, root.ID, child.Parent)
	assert.Equal(t, 1, child.Depth)
	assert.Equal(t, []NodeID{child.ID}, root.Children)

	orphan := f.NewNode(NodeID(1 << 60))
	assert.True(t, orphan.IsRoot())
	assert.Equal(t, 0, orphan.Depth)
}

func TestGenerationBumpsOnStructuralChange(t *testing.T) {
	f := NewForest()
	root := f.NewNode(NoNode)
	a := f.NewNode(root.ID)
	b := f.NewNode(root.ID)

	g := f.Generation()
	f.PromoteToMainLine(b.ID)
	assert.Greater(t, f.Generation(), g)

	g = f.Generation()
	f.PromoteToMainLine(b.ID)
	assert.Equal(t, g, f.Generation(), "no-op promotion must not invalidate views")

	g = f.Generation()
	f.Detach(a.ID)
	assert.Greater(t, f.Generation(), g)
}

func TestPathAndCount(t *testing.T) {
	f := NewForest()
	root := f.NewNode(NoNode)
	ids := line(f, root.ID, 3)
	line(f, ids[0], 2)

	assert.Equal(t, append([]NodeID{root.ID}, ids...), f.Path(ids[2]))
	assert.Equal(t, 6, f.Count(root.ID))
	assert.Equal(t, 5, f.Count(ids[0]))
	assertDepths(t, f)
}

func TestCollectSweepsDetachedSubtrees(t *testing.T) {
	f := NewForest()
	root := f.NewNode(NoNode)
	main := line(f, root.ID, 3)
	variation := line(f, main[0], 4)

	_, ok := f.Detach(variation[0])
	require.True(t, ok)
	assert.Equal(t, 8, f.Len(), "detached nodes stay in the arena until collected")
	assert.Contains(t, f.Roots(), variation[0])

	removed := f.Collect(main[2])
	assert.Equal(t, 4, removed)
	assert.Equal(t, 4, f.Len())
	assert.False(t, f.Contains(variation[3]))
	assert.Equal(t, []NodeID{root.ID}, f.Roots())
}

func TestForgetAnalysisClearsWholeTree(t *testing.T) {
	f := NewForest()
	root := f.NewNode(NoNode)
	ids := line(f, root.ID, 3)
	for _, id := range append(ids, root.ID) {
		f.Node(id).Analysis = &domain.AnalysisResponse{ID: "x"}
	}

	f.ForgetAnalysis(ids[1])

	f.Walk(root.ID, func(n *Node) bool {
		assert.Nil(t, n.Analysis)
		return true
	})
}

func TestWalkCanPrune(t *testing.T) {
	f := NewForest()
	root := f.NewNode(NoNode)
	a := f.NewNode(root.ID)
	f.NewNode(a.ID)
	b := f.NewNode(root.ID)

	var seen []NodeID
	f.Walk(root.ID, func(n *Node) bool {
		seen = append(seen, n.ID)
		return n.ID != a.ID
	})
	assert.Equal(t, []NodeID{root.ID, a.ID, b.ID}, seen)
}

func TestPropertiesKeepOrderAndNormalizeKeys(t *testing.T) {
	var p Properties
	p.Add("sz", "19")
	p.Add("AB", "dd")
	p.Add("AB", "pp")
	p.Add("Comment", "hi")
	p.Add("123", "dropped")

	assert.Equal(t, []string{"SZ", "AB", "COMMENT"}, p.Keys())
	assert.Equal(t, []string{"dd", "pp"}, p.Values("ab"))
	assert.Equal(t, "19", p.Get("SZ"))

	p.Set("SZ", "9")
	p.Set("KM", "6.5")
	assert.Equal(t, []string{"SZ", "AB", "COMMENT", "KM"}, p.Keys())
	assert.Equal(t, "9", p.Get("SZ"))

	p.Delete("AB")
	assert.False(t, p.Has("AB"))
	assert.Equal(t, 3, p.Len())

	p.Set("KM")
	assert.False(t, p.Has("KM"))
}

func TestNodeMove(t *testing.T) {
	f := NewForest()
	n := f.NewNode(NoNode)
	_, _, ok := n.Move()
	assert.False(t, ok)

	n.Props.Add("W", "")
	color, point, ok := n.Move()
	assert.True(t, ok)
	assert.Equal(t, "W", color)
	assert.Equal(t, "", point, "empty value is a pass")
}

func TestAbsorbMovesNodes(t *testing.T) {
	a := NewForest()
	rootA := a.NewNode(NoNode).ID
	b := NewForest()
	rootB := b.NewNode(NoNode).ID
	child := b.NewNode(rootB).ID

	a.Absorb(b)

	assert.Equal(t, 3, a.Len())
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, []NodeID{rootA, rootB}, a.Roots())
	assert.Equal(t, rootB, a.Root(child))
}
