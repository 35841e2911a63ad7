// Package graph analyses certification datasets: it enforces the edge
// endpoint invariant and answers prerequisite-chain queries for the viewer.
package graph

import (
	"github.com/vanderheijden86/techtree/pkg/model"
)

// DropReason explains why Sanitize removed an edge.
type DropReason string

const (
	DropMissingSource DropReason = "missing source"
	DropMissingTarget DropReason = "missing target"
	DropSelfLoop      DropReason = "self loop"
	DropDuplicate     DropReason = "duplicate"
)

// DroppedEdge is an edge removed by Sanitize.
type DroppedEdge struct {
	Edge   model.Edge
	Reason DropReason
}

// Sanitize returns a copy of ds whose edges all reference nodes present in
// ds. Edges with a dangling endpoint, self loops and repeated ids (or repeated
// source/target pairs) are dropped and reported. Nodes with duplicate ids keep
// their first occurrence.
func Sanitize(ds model.GraphDataset) (model.GraphDataset, []DroppedEdge) {
	out := model.GraphDataset{
		Nodes: make([]model.Node, 0, len(ds.Nodes)),
		Edges: make([]model.Edge, 0, len(ds.Edges)),
	}

	present := make(map[string]bool, len(ds.Nodes))
	for _, n := range ds.Nodes {
		if present[n.ID] {
			continue
		}
		present[n.ID] = true
		out.Nodes = append(out.Nodes, n)
	}

	var dropped []DroppedEdge
	seenIDs := make(map[string]bool, len(ds.Edges))
	seenPairs := make(map[[2]string]bool, len(ds.Edges))
	for _, e := range ds.Edges {
		var reason DropReason
		pair := [2]string{e.Source, e.Target}
		switch {
		case !present[e.Source]:
			reason = DropMissingSource
		case !present[e.Target]:
			reason = DropMissingTarget
		case e.Source == e.Target:
			reason = DropSelfLoop
		case (e.ID != "" && seenIDs[e.ID]) || seenPairs[pair]:
			reason = DropDuplicate
		}
		if reason != "" {
			dropped = append(dropped, DroppedEdge{Edge: e, Reason: reason})
			continue
		}
		if e.ID != "" {
			seenIDs[e.ID] = true
		}
		seenPairs[pair] = true
		out.Edges = append(out.Edges, e)
	}

	return out, dropped
}
