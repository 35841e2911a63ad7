package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/vanderheijden86/techtree/internal/datasource"
)

func TestPrintGraph(t *testing.T) {
	var buf bytes.Buffer
	load := datasource.GraphLoad{Dataset: datasource.DemoDataset(), Origin: datasource.OriginDemo, Fallback: true}
	if err := PrintGraph(&buf, load, PrintOptions{Width: 120, Height: 40, Category: "IT"}); err != nil {
		t.Fatalf("PrintGraph: %v", err)
	}
	out := ansi.Strip(buf.String())
	for _, want := range []string{"기술 트리", "IT", "자격증 9개 · 연결 5개"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) > 40 {
		t.Errorf("printed %d lines, want at most 40", len(lines))
	}
}

func TestPrintGraph_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintGraph(&buf, datasource.GraphLoad{}, PrintOptions{}); err != nil {
		t.Fatalf("PrintGraph: %v", err)
	}
	if !strings.Contains(ansi.Strip(buf.String()), "자격증 0개") {
		t.Errorf("empty summary missing: %q", buf.String())
	}
}
