package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/techtree/internal/datasource"
	"github.com/vanderheijden86/techtree/pkg/metrics"
	"github.com/vanderheijden86/techtree/pkg/model"
	"github.com/vanderheijden86/techtree/pkg/watcher"
)

// GraphLoader resolves a graph for a category; it never fails.
type GraphLoader interface {
	Resolve(ctx context.Context, category string) datasource.GraphLoad
}

// DetailLoader resolves a node's detail record; it never fails.
type DetailLoader interface {
	Resolve(ctx context.Context, node model.Node) datasource.DetailLoad
}

// CategoryLoader lists the selectable categories.
type CategoryLoader interface {
	LoadCategories(ctx context.Context) []datasource.Category
}

// GraphLoadedMsg carries a resolved graph. Seq identifies the request so
// responses for a superseded category can be dropped.
type GraphLoadedMsg struct {
	Category string
	Seq      uint64
	Load     datasource.GraphLoad
	Reload   bool
}

// DetailLoadedMsg carries a resolved detail for the tagged request.
type DetailLoadedMsg struct {
	Request DetailRequest
	Load    datasource.DetailLoad
}

// CategoriesLoadedMsg replaces the category selector entries.
type CategoriesLoadedMsg struct {
	Categories []datasource.Category
}

// FileChangedMsg is sent when the watched graph file changes.
type FileChangedMsg struct{}

// LoadGraphCmd resolves the graph for category off the UI goroutine.
func LoadGraphCmd(src GraphLoader, category string, seq uint64, timeout time.Duration, reload bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		done := metrics.Timer(metrics.GraphLoad)
		load := src.Resolve(ctx, category)
		done()
		return GraphLoadedMsg{Category: category, Seq: seq, Load: load, Reload: reload}
	}
}

// LoadDetailCmd resolves the detail for node, tagged with req.
func LoadDetailCmd(src DetailLoader, node model.Node, req DetailRequest, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		done := metrics.Timer(metrics.DetailLoad)
		load := src.Resolve(ctx, node)
		done()
		return DetailLoadedMsg{Request: req, Load: load}
	}
}

// LoadCategoriesCmd fetches the category list.
func LoadCategoriesCmd(src CategoryLoader, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		done := metrics.Timer(metrics.CategoryLoad)
		defer done()
		return CategoriesLoadedMsg{Categories: src.LoadCategories(ctx)}
	}
}

// WatchFileCmd waits for the next change of the watched file.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}
