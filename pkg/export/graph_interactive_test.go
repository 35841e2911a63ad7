package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/techtree/internal/datasource"
	"github.com/vanderheijden86/techtree/pkg/model"
)

func TestRenderInteractiveGraph(t *testing.T) {
	var buf bytes.Buffer
	err := RenderInteractiveGraph(&buf, InteractiveGraphOptions{
		Category: "IT",
		Origin:   "demo",
		Dataset:  datasource.DemoDataset(),
	})
	if err != nil {
		t.Fatalf("RenderInteractiveGraph: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"echarts.init", "정보처리기사", "전기기술사"} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q", want)
		}
	}
}

func TestRenderInteractiveGraph_Empty(t *testing.T) {
	err := RenderInteractiveGraph(&bytes.Buffer{}, InteractiveGraphOptions{})
	if !errors.Is(err, ErrNothingToExport) {
		t.Fatalf("err = %v, want ErrNothingToExport", err)
	}
}

func TestSaveInteractiveGraph_AddsExtension(t *testing.T) {
	base := filepath.Join(t.TempDir(), "tree")
	if err := SaveInteractiveGraph(InteractiveGraphOptions{Path: base, Dataset: datasource.DemoDataset()}); err != nil {
		t.Fatalf("SaveInteractiveGraph: %v", err)
	}
	info, err := os.Stat(base + ".html")
	if err != nil {
		t.Fatalf("output not created: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("output is empty")
	}
	if err := SaveInteractiveGraph(InteractiveGraphOptions{Dataset: datasource.DemoDataset()}); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestEchartsDataNamesAndLinks(t *testing.T) {
	ds := model.GraphDataset{
		Nodes: []model.Node{
			{ID: "1", Data: model.NodeData{Label: "전기기사", Level: model.LevelEngineer}},
			{ID: "2", Data: model.NodeData{Label: "전기기사", Level: model.LevelEngineer}},
			{ID: "3", Data: model.NodeData{Label: "전기기술사", Level: model.LevelProfessional}},
			{ID: "4"},
		},
		Edges: []model.Edge{{ID: "a", Source: "1", Target: "3"}, {ID: "b", Source: "2", Target: "3"}},
	}
	nodes, links := echartsData(ds)

	names := map[string]bool{}
	for _, n := range nodes {
		if names[n.Name] {
			t.Errorf("duplicate node name %q", n.Name)
		}
		names[n.Name] = true
	}
	for _, want := range []string{"전기기사 #1", "전기기사 #2", "전기기술사", "#4"} {
		if !names[want] {
			t.Errorf("missing node name %q in %v", want, names)
		}
	}
	if len(links) != 2 || links[0].Source != "전기기사 #1" || links[1].Source != "전기기사 #2" {
		t.Errorf("links = %+v", links)
	}
	if nodes[2].Category != 3 {
		t.Errorf("master tier category = %v, want 3", nodes[2].Category)
	}
}
