// Package model defines the certification graph and detail records exchanged
// with the backend.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidNodeID is returned when a node id is not a numeric certification id.
var ErrInvalidNodeID = errors.New("node id is not a certification id")

// Position is a 2D coordinate in graph (world) space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData carries the display attributes of a node.
type NodeData struct {
	Label    string `json:"label"`
	Level    Level  `json:"level,omitempty"`
	Category string `json:"category,omitempty"`
	Issuer   string `json:"issuer,omitempty"`
}

// NodeStyle holds presentation hints keyed to the node's level.
type NodeStyle struct {
	Background string `json:"background,omitempty"`
	Border     string `json:"border,omitempty"`
}

// Node is a single certification rendered as a graph vertex.
type Node struct {
	ID       string     `json:"id"`
	Position Position   `json:"position"`
	Data     NodeData   `json:"data"`
	Type     string     `json:"type,omitempty"`
	Style    *NodeStyle `json:"style,omitempty"`
}

// CertID parses the node id back into the backend's numeric certification id.
func (n Node) CertID() (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(n.ID))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNodeID, n.ID)
	}
	return id, nil
}

// Edge is a directed prerequisite relationship: Source unlocks Target.
type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Type     string `json:"type,omitempty"`
	Animated bool   `json:"animated,omitempty"`
}

// GraphDataset is the node/edge pair currently displayed.
type GraphDataset struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// IsEmpty reports whether the dataset has no nodes.
func (d GraphDataset) IsEmpty() bool {
	return len(d.Nodes) == 0
}

// NodeByID returns the node with the given id.
func (d GraphDataset) NodeByID(id string) (Node, bool) {
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Clone returns a deep copy so callers can hand datasets across goroutines
// without sharing slices.
func (d GraphDataset) Clone() GraphDataset {
	out := GraphDataset{
		Nodes: make([]Node, len(d.Nodes)),
		Edges: make([]Edge, len(d.Edges)),
	}
	copy(out.Nodes, d.Nodes)
	copy(out.Edges, d.Edges)
	for i := range out.Nodes {
		if s := out.Nodes[i].Style; s != nil {
			cp := *s
			out.Nodes[i].Style = &cp
		}
	}
	return out
}
