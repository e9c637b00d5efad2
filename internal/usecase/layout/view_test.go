package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kifu/internal/domain/sgf"
)

func marksByNode(p Placement) map[sgf.NodeID]Mark {
	out := make(map[sgf.NodeID]Mark, len(p.Marks))
	for _, m := range p.Marks {
		out[m.Node] = m
	}
	return out
}

func TestPlacePinsRootToCorner(t *testing.T) {
	f := sgf.NewForest()
	root := f.NewNode(sgf.NoNode)
	child := f.NewNode(root.ID)
	child.Props.Add("B", "dd")

	p := View{Width: 200, Height: 200, Spacing: 24}.Place(f, root.ID)

	assert.Equal(t, Point{X: 24, Y: 24}, p.Center)
	marks := marksByNode(p)
	require.Len(t, marks, 2)
	assert.Nil(t, marks[root.ID].Edge)

	m := marks[child.ID]
	assert.Equal(t, Point{X: 24, Y: 48}, m.Pos)
	assert.True(t, m.Black)
	require.NotNil(t, m.Edge)
	assert.Equal(t, root.ID, m.Edge.To)
	assert.Equal(t, Point{X: 24, Y: 24}, m.Edge.At)
}

func TestPlaceCentersDeepNode(t *testing.T) {
	f := sgf.NewForest()
	root := f.NewNode(sgf.NoNode).ID
	ids := chain(f, root, 19)

	p := View{Width: 200, Height: 200, Spacing: 24}.Place(f, ids[14])

	assert.Equal(t, Point{X: 24, Y: 100}, p.Center)
	assert.Equal(t, 20, p.Nodes)
	assert.Equal(t, 100.0, f.Node(ids[14]).GY)

	var depths []int
	for _, m := range p.Marks {
		depths = append(depths, m.Depth)
	}
	assert.Equal(t, []int{11, 12, 13, 14, 15, 16, 17, 18, 19}, depths)
}

func TestPlaceKeepsRightNeighbourOfVisibleSibling(t *testing.T) {
	f := sgf.NewForest()
	root := f.NewNode(sgf.NoNode).ID
	a := f.NewNode(root).ID
	b := f.NewNode(root).ID
	c := f.NewNode(root).ID

	p := View{Width: 40, Height: 200, Spacing: 24}.Place(f, root)
	marks := marksByNode(p)

	assert.Contains(t, marks, a)
	require.Contains(t, marks, b, "b is off the right edge but its elder sibling is not")
	assert.Equal(t, a, marks[b].Edge.To)
	assert.NotContains(t, marks, c)
	assert.Equal(t, 68.0, f.Node(c).GX, "positions are written even for hidden nodes")
}

func TestPlaceDefaultsSpacing(t *testing.T) {
	f := sgf.NewForest()
	root := f.NewNode(sgf.NoNode).ID
	child := f.NewNode(root).ID

	View{Width: 100, Height: 100}.Place(f, root)

	assert.Equal(t, float64(DefaultSpacing), f.Node(child).GY-f.Node(root).GY)
}

func TestPlaceUnknownNode(t *testing.T) {
	f := sgf.NewForest()
	p := View{Width: 100, Height: 100}.Place(f, sgf.NodeID(1<<62))
	assert.Empty(t, p.Marks)
}
