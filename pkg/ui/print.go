package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/techtree/internal/datasource"
	"github.com/vanderheijden86/techtree/pkg/debug"
	"github.com/vanderheijden86/techtree/pkg/graph"
)

// PrintOptions configures a one-shot render of the graph to a writer.
type PrintOptions struct {
	Width, Height int
	Category      string
	MinZoom       float64
	MaxZoom       float64
	FitPadding    float64
}

// PrintGraph renders a resolved load once, fitted to the given size, with
// the legend and a summary line. It is the non-interactive form of the
// viewer's canvas.
func PrintGraph(w io.Writer, load datasource.GraphLoad, o PrintOptions) error {
	if o.Width <= 0 {
		o.Width = 100
	}
	if o.Height <= 0 {
		o.Height = 30
	}
	ds, dropped := graph.Sanitize(load.Dataset)
	for _, d := range dropped {
		debug.Log("ui: print drops edge %s: %s", d.Edge.ID, d.Reason)
	}

	theme := DefaultTheme(lipgloss.NewRenderer(w))
	canvas := NewCanvas(theme, o.MinZoom, o.MaxZoom, o.FitPadding)
	canvas.SetSize(o.Width, max(o.Height-headerRows-footerRows, 4))
	idx := graph.NewIndex(ds)
	canvas.SetNodes(ds.Nodes, idx.Bounds())
	canvas.Fit(idx.Bounds())

	category := o.Category
	if category == "" {
		category = datasource.AllCategory.Label
	}
	var b strings.Builder
	b.WriteString(theme.Header.Render("기술 트리") + "  " + theme.MutedText.Render(category) + "\n")
	b.WriteString(RenderLegend(theme) + "   " + RenderOriginBadge(theme, string(load.Origin), load.Fallback) + "\n")
	b.WriteString(canvas.Render(ds, idx, "", "") + "\n")
	b.WriteString(theme.MutedText.Render(fmt.Sprintf("자격증 %d개 · 연결 %d개", len(ds.Nodes), len(ds.Edges))) + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}
