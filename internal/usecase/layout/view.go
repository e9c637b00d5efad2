package layout

import "kifu/internal/domain/sgf"

const DefaultSpacing = 24

// View is the drawing area the tree is projected onto.
type View struct {
	Width   float64
	Height  float64
	Spacing float64
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge connects a node to its elder sibling, or to its parent when it is the first
// child.
type Edge struct {
	To   sgf.NodeID `json:"to"`
	From Point      `json:"from"`
	At   Point      `json:"at"`
}

// Mark is one node that needs drawing.
type Mark struct {
	Node   sgf.NodeID `json:"node"`
	Column int        `json:"column"`
	Depth  int        `json:"depth"`
	Pos    Point      `json:"pos"`
	Black  bool       `json:"black,omitempty"`
	Edge   *Edge      `json:"edge,omitempty"`
}

// Placement is the result of one Place call.
type Placement struct {
	Center Point  `json:"center"`
	Nodes  int    `json:"nodes"`
	Marks  []Mark `json:"marks"`
}

// Place lays out the tree of center and projects it so that center sits in the
// middle of the view, unless that would push the root more than one spacing unit
// away from the top left corner. GX and GY are written on every node of the tree.
func (v View) Place(f *sgf.Forest, center sgf.NodeID) Placement {
	c := f.Node(center)
	if c == nil {
		return Placement{}
	}
	spacing := v.Spacing
	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	root := f.Node(f.Root(center))
	nodes := Assign(f, center)

	cx, cy := v.Width/2, v.Height/2
	rootX := cx + float64(root.GraphX-c.GraphX)*spacing
	rootY := cy + float64(root.Depth-c.Depth)*spacing
	if rootX > spacing {
		cx += spacing - rootX
	}
	if rootY > spacing {
		cy += spacing - rootY
	}

	p := Placement{Center: Point{X: cx, Y: cy}, Nodes: nodes}
	v.project(f, root, c, cx, cy, &p)
	return p
}

func (v View) project(f *sgf.Forest, localRoot, center *sgf.Node, cx, cy float64, p *Placement) {
	spacing := v.Spacing
	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	node := localRoot
	for {
		node.GX = cx + float64(node.GraphX-center.GraphX)*spacing
		node.GY = cy + float64(node.Depth-center.Depth)*spacing

		var elder *sgf.Node
		if id, ok := f.ElderSibling(node.ID); ok {
			elder = f.Node(id)
		}
		if v.visible(node, elder) {
			p.Marks = append(p.Marks, v.mark(f, node, elder))
		}

		if len(node.Children) > 1 {
			for _, child := range node.Children {
				v.project(f, f.Node(child), center, cx, cy, p)
			}
			return
		}
		if len(node.Children) == 0 {
			return
		}
		node = f.Node(node.Children[0])
	}
}

// visible also keeps nodes right of the view whose elder sibling is on it, so the
// connecting line is drawn.
func (v View) visible(node, elder *sgf.Node) bool {
	if node.GX <= 0 || node.GY <= 0 || node.GY >= v.Height {
		return false
	}
	return node.GX < v.Width || (elder != nil && elder.GX < v.Width)
}

func (v View) mark(f *sgf.Forest, node, elder *sgf.Node) Mark {
	m := Mark{
		Node:   node.ID,
		Column: node.GraphX,
		Depth:  node.Depth,
		Pos:    Point{X: node.GX, Y: node.GY},
		Black:  node.Props.Has("B"),
	}
	switch {
	case elder != nil:
		m.Edge = &Edge{To: elder.ID, From: m.Pos, At: Point{X: elder.GX, Y: elder.GY}}
	case !node.IsRoot():
		parent := f.Node(node.Parent)
		m.Edge = &Edge{To: parent.ID, From: m.Pos, At: Point{X: parent.GX, Y: parent.GY}}
	}
	return m
}
