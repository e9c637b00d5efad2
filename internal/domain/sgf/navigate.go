package sgf

// Navigation methods return the new focus and whether anything happened. A false
// result is routine (no parent, no children, no fork) and leaves the focus where it
// was.

func (f *Forest) Parent(id NodeID) (NodeID, bool) {
	n := f.nodes[id]
	if n == nil || n.Parent == NoNode {
		return id, false
	}
	return n.Parent, true
}

func (f *Forest) FirstChild(id NodeID) (NodeID, bool) {
	n := f.nodes[id]
	if n == nil || len(n.Children) == 0 {
		return id, false
	}
	return n.Children[0], true
}

// Root follows parent links to the top of id's tree.
func (f *Forest) Root(id NodeID) NodeID {
	n := f.nodes[id]
	if n == nil {
		return id
	}
	for n.Parent != NoNode {
		n = f.nodes[n.Parent]
	}
	return n.ID
}

// End follows Children[0] links to the last node of id's main line.
func (f *Forest) End(id NodeID) NodeID {
	n := f.nodes[id]
	if n == nil {
		return id
	}
	for len(n.Children) > 0 {
		n = f.nodes[n.Children[0]]
	}
	return n.ID
}

func (f *Forest) PrevSibling(id NodeID) (NodeID, bool) {
	return f.cycleSibling(id, -1)
}

func (f *Forest) NextSibling(id NodeID) (NodeID, bool) {
	return f.cycleSibling(id, 1)
}

func (f *Forest) cycleSibling(id NodeID, step int) (NodeID, bool) {
	i := f.ChildIndex(id)
	if i < 0 {
		return id, false
	}
	siblings := f.nodes[f.nodes[id].Parent].Children
	if len(siblings) < 2 {
		return id, false
	}
	j := (i + step + len(siblings)) % len(siblings)
	return siblings[j], true
}

// ReturnToMainLine moves to the deepest ancestor-or-self that lies on the main line,
// the chain reached from the root by always taking Children[0].
func (f *Forest) ReturnToMainLine(id NodeID) (NodeID, bool) {
	n := f.nodes[id]
	if n == nil {
		return id, false
	}
	ret := id
	for n.Parent != NoNode {
		if f.ChildIndex(n.ID) != 0 {
			ret = n.Parent
		}
		n = f.nodes[n.Parent]
	}
	return ret, ret != id
}

// ReturnToVariationStart moves to the first node of the current variation: the
// nearest ancestor-or-self that is a root or whose parent is a fork.
func (f *Forest) ReturnToVariationStart(id NodeID) (NodeID, bool) {
	n := f.nodes[id]
	if n == nil {
		return id, false
	}
	for n.Parent != NoNode && len(f.nodes[n.Parent].Children) == 1 {
		n = f.nodes[n.Parent]
	}
	return n.ID, n.ID != id
}

// PreviousFork finds the nearest strict ancestor with two or more children.
func (f *Forest) PreviousFork(id NodeID) (NodeID, bool) {
	n := f.nodes[id]
	if n == nil {
		return id, false
	}
	for n.Parent != NoNode {
		n = f.nodes[n.Parent]
		if len(n.Children) >= 2 {
			return n.ID, true
		}
	}
	return id, false
}

// NextFork finds the nearest node with two or more children below id on its main
// line.
func (f *Forest) NextFork(id NodeID) (NodeID, bool) {
	n := f.nodes[id]
	if n == nil {
		return id, false
	}
	for len(n.Children) > 0 {
		n = f.nodes[n.Children[0]]
		if len(n.Children) >= 2 {
			return n.ID, true
		}
	}
	return id, false
}

// PromoteToMainLine moves the path to id into slot 0 at every level up to the root.
// Other children keep their relative order. Nothing is detached.
func (f *Forest) PromoteToMainLine(id NodeID) bool {
	n := f.nodes[id]
	if n == nil {
		return false
	}
	changed := false
	for n.Parent != NoNode {
		p := f.nodes[n.Parent]
		if i := f.ChildIndex(n.ID); i > 0 {
			copy(p.Children[1:i+1], p.Children[:i])
			p.Children[0] = n.ID
			changed = true
		}
		n = p
	}
	if changed {
		f.touch()
	}
	return changed
}

// Detach removes id and its subtree from its parent. The subtree becomes a separate
// root in the arena with depths starting at 0 and its analysis cleared. Returns the
// old parent.
func (f *Forest) Detach(id NodeID) (NodeID, bool) {
	n := f.nodes[id]
	if n == nil || n.Parent == NoNode {
		return id, false
	}
	p := f.nodes[n.Parent]
	for i, c := range p.Children {
		if c == id {
			p.Children = append(p.Children[:i:i], p.Children[i+1:]...)
			break
		}
	}
	n.Parent = NoNode
	f.setDepths(id, 0)
	f.Walk(id, func(d *Node) bool {
		d.Analysis = nil
		return true
	})
	f.touch()
	return p.ID, true
}

// Delete detaches id and returns its parent as the new focus. A root is not removed;
// each of its children is detached instead and the root stays the focus.
func (f *Forest) Delete(id NodeID) (NodeID, bool) {
	n := f.nodes[id]
	if n == nil {
		return id, false
	}
	if n.Parent != NoNode {
		return f.Detach(id)
	}
	if len(n.Children) == 0 {
		return id, false
	}
	for _, c := range append([]NodeID(nil), n.Children...) {
		f.Detach(c)
	}
	return id, true
}

// DeleteOtherLines promotes id to the main line and then detaches every variation
// along the main line, leaving a single unbranched line through id.
func (f *Forest) DeleteOtherLines(id NodeID) bool {
	if !f.Contains(id) {
		return false
	}
	changed := f.PromoteToMainLine(id)
	n := f.nodes[f.Root(id)]
	for len(n.Children) > 0 {
		for _, c := range append([]NodeID(nil), n.Children[1:]...) {
			f.Detach(c)
			changed = true
		}
		n = f.nodes[n.Children[0]]
	}
	return changed
}
