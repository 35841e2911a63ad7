package datasource

import (
	"context"
	"fmt"

	"github.com/vanderheijden86/techtree/pkg/debug"
	"github.com/vanderheijden86/techtree/pkg/metrics"
	"github.com/vanderheijden86/techtree/pkg/model"
)

// GraphLoad is the outcome of a best-effort graph load.
type GraphLoad struct {
	Dataset  model.GraphDataset
	Category string
	Origin   Origin
	// Fallback is true when Dataset came from the fallback source.
	Fallback bool
	// Cause is the primary source's failure (or ErrEmptyGraph) when Fallback is set.
	Cause error
}

// FallbackGraphSource makes one attempt on Primary and substitutes Fallback
// when that attempt fails or yields no nodes. There is no retry and no
// merging of partial results.
type FallbackGraphSource struct {
	Primary  GraphSource
	Fallback GraphSource
}

// WithDemoFallback wraps primary so the demo dataset replaces failures.
func WithDemoFallback(primary GraphSource) FallbackGraphSource {
	return FallbackGraphSource{Primary: primary, Fallback: NewDemoSource()}
}

// Resolve loads the graph and reports which source produced it.
func (s FallbackGraphSource) Resolve(ctx context.Context, category string) GraphLoad {
	if s.Primary != nil {
		ds, err := s.Primary.LoadGraph(ctx, category)
		if err == nil && !ds.IsEmpty() {
			return GraphLoad{Dataset: ds, Category: category, Origin: OriginOf(s.Primary)}
		}
		if err == nil {
			err = ErrEmptyGraph
		}
		debug.Log("datasource: graph load for category %q failed, using fallback: %v", category, err)
		return s.fallback(ctx, category, err)
	}
	return s.fallback(ctx, category, fmt.Errorf("no primary graph source"))
}

func (s FallbackGraphSource) fallback(ctx context.Context, category string, cause error) GraphLoad {
	metrics.FallbackTotal.WithLabelValues("graph").Inc()

	fb := s.Fallback
	if fb == nil {
		fb = NewDemoSource()
	}
	ds, err := fb.LoadGraph(ctx, category)
	if err != nil || ds.IsEmpty() {
		// The configured fallback failed too; the demo graph is the last word.
		debug.Log("datasource: fallback source failed for category %q: %v", category, err)
		fb = NewDemoSource()
		ds = DemoDataset()
	}
	return GraphLoad{
		Dataset:  ds,
		Category: category,
		Origin:   OriginOf(fb),
		Fallback: true,
		Cause:    cause,
	}
}

// LoadGraph implements GraphSource. It never returns an error.
func (s FallbackGraphSource) LoadGraph(ctx context.Context, category string) (model.GraphDataset, error) {
	return s.Resolve(ctx, category).Dataset, nil
}
