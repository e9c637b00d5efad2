// Package sgf holds the move tree: nodes carrying SGF properties, kept in an arena
// and addressed by stable IDs, plus the structural algorithms that navigate and
// reshape the tree in place.
package sgf

import (
	"sync/atomic"

	"kifu/internal/domain"
)

// NodeID identifies a node for the lifetime of the process. IDs are never reused.
type NodeID int64

// NoNode is the zero NodeID; it names no node.
const NoNode NodeID = 0

var lastNodeID atomic.Int64

func nextNodeID() NodeID {
	return NodeID(lastNodeID.Add(1))
}

// Node is one position in the move tree.
type Node struct {
	ID       NodeID
	Parent   NodeID   // NoNode for a root
	Children []NodeID // Children[0] is the main line
	Props    Properties
	Depth    int

	Analysis *domain.AnalysisResponse

	// Written by the layout engine on every pass.
	GraphX int
	GX, GY float64
}

func (n *Node) IsRoot() bool {
	return n.Parent == NoNode
}

// Move returns the node's move property. An empty point is a pass.
func (n *Node) Move() (color, point string, ok bool) {
	if v, found := n.Props.Lookup("B"); found {
		return "B", v, true
	}
	if v, found := n.Props.Lookup("W"); found {
		return "W", v, true
	}
	return "", "", false
}

func (n *Node) HasMove() bool {
	return n.Props.Has("B") || n.Props.Has("W")
}
