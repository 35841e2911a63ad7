package datasource

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/techtree/pkg/model"
)

// FileGraphSource reads a dataset from a JSON file in the backend's wire
// shape. The file is re-read on every call so edits show up on reload.
type FileGraphSource struct {
	Path string
}

// LoadGraph implements GraphSource.
func (s FileGraphSource) LoadGraph(ctx context.Context, category string) (model.GraphDataset, error) {
	if err := ctx.Err(); err != nil {
		return model.GraphDataset{}, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return model.GraphDataset{}, fmt.Errorf("read graph file: %w", err)
	}
	var ds model.GraphDataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return model.GraphDataset{}, fmt.Errorf("decode graph file %s: %w", s.Path, err)
	}
	return FilterCategory(ds, category), nil
}

// Origin implements originer.
func (FileGraphSource) Origin() Origin { return OriginFile }

// FilterCategory keeps the nodes whose category matches and the edges between
// them. An empty category returns ds unchanged.
func FilterCategory(ds model.GraphDataset, category string) model.GraphDataset {
	if category == "" {
		return ds
	}
	keep := make(map[string]bool, len(ds.Nodes))
	out := model.GraphDataset{}
	for _, n := range ds.Nodes {
		if n.Data.Category == category {
			keep[n.ID] = true
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range ds.Edges {
		if keep[e.Source] && keep[e.Target] {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}
