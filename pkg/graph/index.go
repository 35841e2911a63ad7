package graph

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/techtree/pkg/model"
)

// Node footprint in world units. Positions are the node's top-left corner.
const (
	NodeWidth  = 180.0
	NodeHeight = 60.0
)

// ErrCycle is returned by TopoOrder when prerequisites form a cycle.
var ErrCycle = errors.New("prerequisite graph contains a cycle")

// Rect is an axis-aligned rectangle in world space.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width of the rectangle.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height of the rectangle.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Index is an adjacency view over a sanitized dataset.
type Index struct {
	g        *simple.DirectedGraph
	idToNode map[string]int64
	nodeToID map[int64]string
	nodes    map[string]model.Node
	order    []string
}

// NewIndex builds the index. Edges whose endpoints are missing are ignored,
// so callers may pass unsanitized data without panicking.
func NewIndex(ds model.GraphDataset) *Index {
	g := simple.NewDirectedGraph()
	idx := &Index{
		g:        g,
		idToNode: make(map[string]int64, len(ds.Nodes)),
		nodeToID: make(map[int64]string, len(ds.Nodes)),
		nodes:    make(map[string]model.Node, len(ds.Nodes)),
		order:    make([]string, 0, len(ds.Nodes)),
	}

	for _, n := range ds.Nodes {
		if _, dup := idx.idToNode[n.ID]; dup {
			continue
		}
		gn := g.NewNode()
		g.AddNode(gn)
		idx.idToNode[n.ID] = gn.ID()
		idx.nodeToID[gn.ID()] = n.ID
		idx.nodes[n.ID] = n
		idx.order = append(idx.order, n.ID)
	}

	for _, e := range ds.Edges {
		u, okU := idx.idToNode[e.Source]
		v, okV := idx.idToNode[e.Target]
		if !okU || !okV || u == v {
			continue
		}
		// prerequisite (u) unlocks follow-on (v)
		g.SetEdge(g.NewEdge(g.Node(u), g.Node(v)))
	}

	return idx
}

// Len returns the number of nodes.
func (i *Index) Len() int { return len(i.order) }

// IDs returns node ids in dataset order.
func (i *Index) IDs() []string {
	out := make([]string, len(i.order))
	copy(out, i.order)
	return out
}

// Node returns the node with the given id.
func (i *Index) Node(id string) (model.Node, bool) {
	n, ok := i.nodes[id]
	return n, ok
}

// Prerequisites returns the direct prerequisites of id, sorted.
func (i *Index) Prerequisites(id string) []string {
	n, ok := i.idToNode[id]
	if !ok {
		return nil
	}
	return i.collect(i.g.To(n))
}

// FollowOns returns the certifications id directly unlocks, sorted.
func (i *Index) FollowOns(id string) []string {
	n, ok := i.idToNode[id]
	if !ok {
		return nil
	}
	return i.collect(i.g.From(n))
}

// Ancestors returns every transitive prerequisite of id, sorted.
func (i *Index) Ancestors(id string) []string {
	return i.walk(id, i.g.To)
}

// Descendants returns every certification transitively unlocked by id, sorted.
func (i *Index) Descendants(id string) []string {
	return i.walk(id, i.g.From)
}

// Chain returns id together with its ancestors and descendants as a set.
func (i *Index) Chain(id string) map[string]bool {
	if _, ok := i.idToNode[id]; !ok {
		return nil
	}
	set := map[string]bool{id: true}
	for _, a := range i.Ancestors(id) {
		set[a] = true
	}
	for _, d := range i.Descendants(id) {
		set[d] = true
	}
	return set
}

// TopoOrder returns node ids with every prerequisite before what it unlocks.
func (i *Index) TopoOrder() ([]string, error) {
	sorted, err := topo.Sort(i.g)
	if err != nil {
		return nil, ErrCycle
	}
	out := make([]string, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, i.nodeToID[n.ID()])
	}
	return out, nil
}

// Bounds returns the world-space rectangle covering every node footprint.
func (i *Index) Bounds() Rect {
	if len(i.order) == 0 {
		return Rect{}
	}
	r := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, id := range i.order {
		p := i.nodes[id].Position
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X+NodeWidth)
		r.MaxY = math.Max(r.MaxY, p.Y+NodeHeight)
	}
	return r
}

func (i *Index) collect(it graph.Nodes) []string {
	var out []string
	for it.Next() {
		out = append(out, i.nodeToID[it.Node().ID()])
	}
	sort.Strings(out)
	return out
}

func (i *Index) walk(id string, next func(int64) graph.Nodes) []string {
	start, ok := i.idToNode[id]
	if !ok {
		return nil
	}
	seen := map[int64]bool{start: true}
	queue := []int64{start}
	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		it := next(cur)
		for it.Next() {
			nid := it.Node().ID()
			if seen[nid] {
				continue
			}
			seen[nid] = true
			out = append(out, i.nodeToID[nid])
			queue = append(queue, nid)
		}
	}
	sort.Strings(out)
	return out
}
