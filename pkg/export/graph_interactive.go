package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/vanderheijden86/techtree/pkg/debug"
	"github.com/vanderheijden86/techtree/pkg/graph"
	"github.com/vanderheijden86/techtree/pkg/model"
)

// InteractiveGraphOptions configures HTML graph generation.
type InteractiveGraphOptions struct {
	Path     string
	Title    string
	Category string
	Origin   string
	Dataset  model.GraphDataset
}

// SaveInteractiveGraph writes a self-contained echarts page with the tech
// tree at its authored coordinates. The chart can be panned, zoomed and
// dragged in the browser.
func SaveInteractiveGraph(o InteractiveGraphOptions) error {
	if o.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if filepath.Ext(o.Path) == "" {
		o.Path += ".html"
	}
	if err := os.MkdirAll(filepath.Dir(o.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	f, err := os.Create(o.Path)
	if err != nil {
		return err
	}
	if err := RenderInteractiveGraph(f, o); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RenderInteractiveGraph writes the page to w.
func RenderInteractiveGraph(w io.Writer, o InteractiveGraphOptions) error {
	ds, dropped := graph.Sanitize(o.Dataset)
	for _, d := range dropped {
		debug.Log("export: html skips edge %s: %s", d.Edge.ID, d.Reason)
	}
	if ds.IsEmpty() {
		return ErrNothingToExport
	}

	nodes, links := echartsData(ds)
	page := components.NewPage()
	page.AddCharts(graphChart(o, nodes, links))
	return page.Render(w)
}

// echartsData converts the dataset. Links refer to nodes by name, so
// duplicate labels get the node id appended.
func echartsData(ds model.GraphDataset) ([]opts.GraphNode, []opts.GraphLink) {
	seen := make(map[string]int, len(ds.Nodes))
	for _, n := range ds.Nodes {
		seen[n.Data.Label]++
	}

	names := make(map[string]string, len(ds.Nodes))
	nodes := make([]opts.GraphNode, 0, len(ds.Nodes))
	for _, n := range ds.Nodes {
		name := n.Data.Label
		if name == "" || seen[name] > 1 {
			name = strings.TrimSpace(fmt.Sprintf("%s #%s", n.Data.Label, n.ID))
		}
		names[n.ID] = name

		fill, border := tierColors(n.Data.Level)
		cat := n.Data.Level.Rank() - 1
		if cat < 0 {
			cat = 0
		}
		nodes = append(nodes, opts.GraphNode{
			Name:       name,
			X:          float32(n.Position.X + graph.NodeWidth/2),
			Y:          float32(n.Position.Y + graph.NodeHeight/2),
			Category:   cat,
			Symbol:     "roundRect",
			SymbolSize: []int{int(graph.NodeWidth * 0.6), int(graph.NodeHeight * 0.6)},
			ItemStyle: &opts.ItemStyle{
				Color:       css(fill),
				BorderColor: css(border),
				BorderWidth: 2,
			},
		})
	}

	links := make([]opts.GraphLink, 0, len(ds.Edges))
	for _, e := range ds.Edges {
		links = append(links, opts.GraphLink{Source: names[e.Source], Target: names[e.Target]})
	}
	return nodes, links
}

func graphChart(o InteractiveGraphOptions, nodes []opts.GraphNode, links []opts.GraphLink) *charts.Graph {
	title := o.Title
	if strings.TrimSpace(title) == "" {
		title = "기술 트리"
	}
	category := o.Category
	if category == "" {
		category = "전체"
	}

	categories := make([]*opts.GraphCategory, 0, len(model.Levels))
	for _, l := range model.Levels {
		categories = append(categories, &opts.GraphCategory{Name: string(l)})
	}

	g := charts.NewGraph()
	g.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Height:    "100vh",
			Width:     "100vw",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("카테고리: %s · 데이터: %s · 자격증 %d개", category, o.Origin, len(nodes)),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	g.AddSeries(
		"certifications",
		nodes,
		links,
		charts.WithGraphChartOpts(opts.GraphChart{
			Layout:     "none",
			Roam:       opts.Bool(true),
			Draggable:  opts.Bool(true),
			EdgeSymbol: []string{"none", "arrow"},
			Categories: categories,
		}),
		charts.WithLabelOpts(opts.Label{
			Show:     opts.Bool(true),
			Color:    "#111111",
			Position: "inside",
		}),
	)
	return g
}
