// Package datasource produces the graph and detail data the tech tree shows.
//
// Every source is a small interface with interchangeable implementations:
// the live backend, the built-in demo graph, a JSON file, or an offline
// SQLite snapshot. Fallback wrappers compose a primary with a default so the
// viewer always has something to show; failures are logged and counted but
// never surfaced to the view.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanderheijden86/techtree/pkg/api"
	"github.com/vanderheijden86/techtree/pkg/model"
)

// ErrEmptyGraph is reported as the cause when a source returns zero nodes.
var ErrEmptyGraph = errors.New("graph has no nodes")

// Origin identifies where a dataset came from.
type Origin string

const (
	OriginLive    Origin = "live"
	OriginDemo    Origin = "demo"
	OriginFile    Origin = "file"
	OriginOffline Origin = "offline"
)

// GraphSource loads a graph for an optional category ("" means all).
type GraphSource interface {
	LoadGraph(ctx context.Context, category string) (model.GraphDataset, error)
}

// originer is implemented by sources that know their Origin.
type originer interface {
	Origin() Origin
}

// OriginOf returns the origin of a source, or "" if it does not report one.
func OriginOf(src any) Origin {
	if o, ok := src.(originer); ok {
		return o.Origin()
	}
	return ""
}

// GraphClient is the part of api.Client the live sources need.
type GraphClient interface {
	FetchGraph(ctx context.Context, category string) (model.GraphDataset, error)
}

var _ GraphClient = (*api.Client)(nil)

// LiveGraphSource loads the graph from the backend.
type LiveGraphSource struct {
	Client GraphClient
}

// LoadGraph implements GraphSource.
func (s LiveGraphSource) LoadGraph(ctx context.Context, category string) (model.GraphDataset, error) {
	if s.Client == nil {
		return model.GraphDataset{}, fmt.Errorf("live graph source: no client configured")
	}
	return s.Client.FetchGraph(ctx, category)
}

// Origin implements originer.
func (LiveGraphSource) Origin() Origin { return OriginLive }

// StaticGraphSource always returns the same dataset, regardless of category.
type StaticGraphSource struct {
	Dataset model.GraphDataset
}

// NewDemoSource returns a static source over DemoDataset.
func NewDemoSource() StaticGraphSource {
	return StaticGraphSource{Dataset: DemoDataset()}
}

// LoadGraph implements GraphSource.
func (s StaticGraphSource) LoadGraph(context.Context, string) (model.GraphDataset, error) {
	return s.Dataset.Clone(), nil
}

// Origin implements originer.
func (StaticGraphSource) Origin() Origin { return OriginDemo }
