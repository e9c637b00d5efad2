// Package layout places the nodes of a move tree on a grid: one column per line of
// play, one row per depth, every variation packed as far left as it fits.
package layout

import "kifu/internal/domain/sgf"

// reservations records, per depth, the rightmost column already taken.
type reservations struct {
	cols []int
}

func (r *reservations) get(depth int) (int, bool) {
	if depth >= len(r.cols) || r.cols[depth] < 0 {
		return 0, false
	}
	return r.cols[depth], true
}

func (r *reservations) set(depth, col int) {
	for len(r.cols) <= depth {
		r.cols = append(r.cols, -1)
	}
	r.cols[depth] = col
}

// Assign writes GraphX for every node in the tree of id and returns the number of
// nodes placed. The root's main line is column 0.
func Assign(f *sgf.Forest, id sgf.NodeID) int {
	root := f.Root(id)
	if !f.Contains(root) {
		return 0
	}
	return reserve(f, root, &reservations{})
}

// reserve places the elder chain starting at localRoot in the leftmost column that is
// free at every depth the chain covers, then places the chain's variations.
func reserve(f *sgf.Forest, localRoot sgf.NodeID, r *reservations) int {
	col := 0
	for n := f.Node(localRoot); ; n = f.Node(n.Children[0]) {
		if taken, ok := r.get(n.Depth); ok && taken >= col {
			col = taken + 1
		}
		if len(n.Children) == 0 {
			break
		}
	}

	// Variations at deeper forks go first; siblings at one fork keep their order.
	var branches []sgf.NodeID
	placed := 0
	for n := f.Node(localRoot); ; n = f.Node(n.Children[0]) {
		r.set(n.Depth, col)
		n.GraphX = col
		placed++
		if len(n.Children) == 0 {
			break
		}
		for i := len(n.Children) - 1; i > 0; i-- {
			branches = append(branches, n.Children[i])
		}
	}
	for i, j := 0, len(branches)-1; i < j; i, j = i+1, j-1 {
		branches[i], branches[j] = branches[j], branches[i]
	}

	for _, b := range branches {
		placed += reserve(f, b, r)
	}
	return placed
}
