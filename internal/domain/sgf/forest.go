package sgf

import "sort"

// Forest is the arena that owns every node of one or more move trees. Parent and
// child links are plain IDs into the arena. Detached subtrees stay in the arena as
// independent roots until Collect sweeps them.
type Forest struct {
	nodes      map[NodeID]*Node
	generation uint64
}

func NewForest() *Forest {
	return &Forest{nodes: make(map[NodeID]*Node)}
}

// NewNode creates a node and appends it to parent's children. With NoNode, or an
// ID that is not in the forest, the node becomes a new root.
func (f *Forest) NewNode(parent NodeID) *Node {
	n := &Node{ID: nextNodeID()}
	if p, ok := f.nodes[parent]; ok {
		n.Parent = parent
		n.Depth = p.Depth + 1
		p.Children = append(p.Children, n.ID)
	}
	f.nodes[n.ID] = n
	f.touch()
	return n
}

// Absorb moves every node of other into f. other is left empty.
func (f *Forest) Absorb(other *Forest) {
	if other == nil || other == f || len(other.nodes) == 0 {
		return
	}
	for id, n := range other.nodes {
		f.nodes[id] = n
	}
	other.nodes = make(map[NodeID]*Node)
	other.touch()
	f.touch()
}

// Node returns nil when id is not in the forest.
func (f *Forest) Node(id NodeID) *Node {
	return f.nodes[id]
}

func (f *Forest) Contains(id NodeID) bool {
	_, ok := f.nodes[id]
	return ok
}

func (f *Forest) Len() int {
	return len(f.nodes)
}

// Generation changes whenever nodes are added, removed, reordered or detached.
// Views compare it with the value they last computed against.
func (f *Forest) Generation() uint64 {
	return f.generation
}

func (f *Forest) touch() {
	f.generation++
}

// Roots returns every root in the arena, oldest first.
func (f *Forest) Roots() []NodeID {
	var roots []NodeID
	for id, n := range f.nodes {
		if n.Parent == NoNode {
			roots = append(roots, id)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

// Walk visits the subtree under id in pre-order, children in order. Returning false
// from fn skips that node's descendants.
func (f *Forest) Walk(id NodeID, fn func(n *Node) bool) {
	if !f.Contains(id) {
		return
	}
	stack := []NodeID{id}
	for len(stack) > 0 {
		n := f.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Count returns the number of nodes in the subtree under id.
func (f *Forest) Count(id NodeID) int {
	count := 0
	f.Walk(id, func(*Node) bool {
		count++
		return true
	})
	return count
}

// Path returns the IDs from the root of id's tree down to id.
func (f *Forest) Path(id NodeID) []NodeID {
	var path []NodeID
	for n := f.nodes[id]; n != nil; n = f.nodes[n.Parent] {
		path = append(path, n.ID)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// ChildIndex is id's position in its parent's children, or -1 for a root.
func (f *Forest) ChildIndex(id NodeID) int {
	n := f.nodes[id]
	if n == nil {
		return -1
	}
	p := f.nodes[n.Parent]
	if p == nil {
		return -1
	}
	for i, c := range p.Children {
		if c == id {
			return i
		}
	}
	return -1
}

// ElderSibling is the sibling immediately before id in its parent's children.
func (f *Forest) ElderSibling(id NodeID) (NodeID, bool) {
	i := f.ChildIndex(id)
	if i <= 0 {
		return NoNode, false
	}
	return f.nodes[f.nodes[id].Parent].Children[i-1], true
}

// Collect deletes every node that is not reachable from the roots of the retained
// IDs and returns how many nodes were removed.
func (f *Forest) Collect(retain ...NodeID) int {
	keep := make(map[NodeID]bool, len(f.nodes))
	for _, id := range retain {
		if !f.Contains(id) {
			continue
		}
		f.Walk(f.Root(id), func(n *Node) bool {
			keep[n.ID] = true
			return true
		})
	}
	removed := 0
	for id := range f.nodes {
		if !keep[id] {
			delete(f.nodes, id)
			removed++
		}
	}
	if removed > 0 {
		f.touch()
	}
	return removed
}

// ForgetAnalysis clears the analysis of every node in id's tree.
func (f *Forest) ForgetAnalysis(id NodeID) {
	if !f.Contains(id) {
		return
	}
	f.Walk(f.Root(id), func(n *Node) bool {
		n.Analysis = nil
		return true
	})
}

func (f *Forest) setDepths(id NodeID, depth int) {
	offset := depth - f.nodes[id].Depth
	if offset == 0 {
		return
	}
	f.Walk(id, func(n *Node) bool {
		n.Depth += offset
		return true
	})
}
