package datasource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vanderheijden86/techtree/pkg/model"
)

// DatasetDiff describes how a reloaded dataset differs from the previous one.
type DatasetDiff struct {
	AddedNodes   []string
	RemovedNodes []string
	// ChangedNodes have the same id but a different label, level or position.
	ChangedNodes []string
	AddedEdges   []string
	RemovedEdges []string
}

// Empty reports whether the two datasets were equivalent.
func (d DatasetDiff) Empty() bool {
	return len(d.AddedNodes) == 0 && len(d.RemovedNodes) == 0 && len(d.ChangedNodes) == 0 &&
		len(d.AddedEdges) == 0 && len(d.RemovedEdges) == 0
}

// Summary returns a one-line description for the status bar.
func (d DatasetDiff) Summary() string {
	if d.Empty() {
		return "no changes"
	}
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", what, n))
		}
	}
	add(len(d.AddedNodes), "+nodes")
	add(len(d.RemovedNodes), "-nodes")
	add(len(d.ChangedNodes), "~nodes")
	add(len(d.AddedEdges), "+edges")
	add(len(d.RemovedEdges), "-edges")
	return strings.Join(parts, ", ")
}

// DiffDatasets compares prev and next by id. Result slices are sorted.
func DiffDatasets(prev, next model.GraphDataset) DatasetDiff {
	var d DatasetDiff

	prevNodes := make(map[string]model.Node, len(prev.Nodes))
	for _, n := range prev.Nodes {
		prevNodes[n.ID] = n
	}
	nextNodes := make(map[string]bool, len(next.Nodes))
	for _, n := range next.Nodes {
		nextNodes[n.ID] = true
		old, ok := prevNodes[n.ID]
		switch {
		case !ok:
			d.AddedNodes = append(d.AddedNodes, n.ID)
		case old.Data.Label != n.Data.Label || old.Data.Level != n.Data.Level || old.Position != n.Position:
			d.ChangedNodes = append(d.ChangedNodes, n.ID)
		}
	}
	for id := range prevNodes {
		if !nextNodes[id] {
			d.RemovedNodes = append(d.RemovedNodes, id)
		}
	}

	edgeKey := func(e model.Edge) string { return e.Source + "->" + e.Target }
	prevEdges := make(map[string]bool, len(prev.Edges))
	for _, e := range prev.Edges {
		prevEdges[edgeKey(e)] = true
	}
	nextEdges := make(map[string]bool, len(next.Edges))
	for _, e := range next.Edges {
		k := edgeKey(e)
		nextEdges[k] = true
		if !prevEdges[k] {
			d.AddedEdges = append(d.AddedEdges, k)
		}
	}
	for k := range prevEdges {
		if !nextEdges[k] {
			d.RemovedEdges = append(d.RemovedEdges, k)
		}
	}

	for _, s := range [][]string{d.AddedNodes, d.RemovedNodes, d.ChangedNodes, d.AddedEdges, d.RemovedEdges} {
		sort.Strings(s)
	}
	return d
}
