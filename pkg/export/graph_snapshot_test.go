package export

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/techtree/internal/datasource"
	"github.com/vanderheijden86/techtree/pkg/graph"
	"github.com/vanderheijden86/techtree/pkg/model"
)

func TestSaveGraphSnapshot_SVGAndPNG(t *testing.T) {
	tmp := t.TempDir()
	cases := []struct {
		name string
		file string
	}{
		{"svg", "graph.svg"},
		{"png", "graph.png"},
		{"no extension", "graph"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := filepath.Join(tmp, tc.file)
			err := SaveGraphSnapshot(GraphSnapshotOptions{
				Path:     out,
				Category: "IT",
				Origin:   "demo",
				Dataset:  datasource.DemoDataset(),
			})
			if err != nil {
				t.Fatalf("SaveGraphSnapshot error: %v", err)
			}
			if filepath.Ext(out) == "" {
				out += ".svg"
			}
			info, err := os.Stat(out)
			if err != nil {
				t.Fatalf("output not created: %v", err)
			}
			if info.Size() == 0 {
				t.Fatalf("output file is empty")
			}
		})
	}
}

func TestSaveGraphSnapshot_PNGDecodes(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "tree.png")
	if err := SaveGraphSnapshot(GraphSnapshotOptions{Path: out, Dataset: datasource.DemoDataset()}); err != nil {
		t.Fatalf("SaveGraphSnapshot: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	b := img.Bounds()
	if b.Dx() < 640 || b.Dy() < 480 {
		t.Errorf("image %dx%d smaller than minimum", b.Dx(), b.Dy())
	}
}

func TestSaveGraphSnapshot_Errors(t *testing.T) {
	tmp := t.TempDir()
	if err := SaveGraphSnapshot(GraphSnapshotOptions{
		Path:    filepath.Join(tmp, "graph.txt"),
		Format:  "txt",
		Dataset: datasource.DemoDataset(),
	}); err == nil {
		t.Error("expected error for invalid format")
	}
	if err := SaveGraphSnapshot(GraphSnapshotOptions{Dataset: datasource.DemoDataset(), Format: "svg"}); err == nil {
		t.Error("expected error for missing path")
	}
	err := SaveGraphSnapshot(GraphSnapshotOptions{Path: filepath.Join(tmp, "empty.svg")})
	if !errors.Is(err, ErrNothingToExport) {
		t.Errorf("empty dataset error = %v, want ErrNothingToExport", err)
	}
}

func TestRenderSVGContent(t *testing.T) {
	ds := datasource.DemoDataset()
	ds.Edges = append(ds.Edges, model.Edge{ID: "dangling", Source: "1", Target: "404"})
	opts := GraphSnapshotOptions{Title: "전기/정보 로드맵", Category: "IT", Origin: "live", Dataset: ds}

	var buf bytes.Buffer
	clean := opts
	clean.Dataset, _ = graph.Sanitize(ds)
	if err := renderSVGToWriter(&buf, buildLayout(clean)); err != nil {
		t.Fatalf("renderSVGToWriter: %v", err)
	}
	svg := buf.String()

	for _, want := range []string{"<svg", "정보처리기사", "전기/정보 로드맵", "카테고리: IT", "자격증 9개 · 연결 5개", "#dbeafe", "#f59e0b"} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if got := strings.Count(svg, "<polygon"); got != 5 {
		t.Errorf("arrow heads = %d, want 5", got)
	}
}

func TestBuildLayoutKeepsRelativePositions(t *testing.T) {
	ds := datasource.DemoDataset()
	layout := buildLayout(GraphSnapshotOptions{Dataset: ds})

	byID := map[string]layoutNode{}
	for _, n := range layout.Nodes {
		byID[n.ID] = n
	}
	// Node 8 (master) sits 450 world units above node 1 (entry).
	if dy := byID["1"].Y - byID["8"].Y; dy != 450 {
		t.Errorf("vertical gap = %v, want 450", dy)
	}
	if byID["8"].Y != snapPadding+snapHeader {
		t.Errorf("top row at %v, want %v", byID["8"].Y, snapPadding+snapHeader)
	}
	if layout.Summary.PerTier[3] != 3 || layout.Summary.PerTier[1] != 2 {
		t.Errorf("tier counts = %v", layout.Summary.PerTier)
	}
	if layout.Summary.Category != "all" || layout.Summary.Title != "Tech Tree" {
		t.Errorf("summary defaults = %+v", layout.Summary)
	}
}

func TestAnchorsAndArrowHead(t *testing.T) {
	lower := layoutNode{X: 0, Y: 300, W: 180, H: 60}
	upper := layoutNode{X: 0, Y: 100, W: 180, H: 60}
	x1, y1, x2, y2 := anchors(lower, upper)
	if x1 != 90 || y1 != 300 || x2 != 90 || y2 != 160 {
		t.Errorf("stacked anchors = (%v,%v)-(%v,%v)", x1, y1, x2, y2)
	}

	right := layoutNode{X: 400, Y: 300, W: 180, H: 60}
	x1, y1, x2, y2 = anchors(lower, right)
	if x1 != 180 || y1 != 330 || x2 != 400 || y2 != 330 {
		t.Errorf("side anchors = (%v,%v)-(%v,%v)", x1, y1, x2, y2)
	}

	ax, ay, bx, by := arrowHead(0, 100, 0, 0, 10)
	if ay <= 0 || by <= 0 || ax == bx {
		t.Errorf("arrow head for upward edge = (%v,%v) (%v,%v)", ax, ay, bx, by)
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
	}{
		{"#3b82f6", color.RGBA{0x3b, 0x82, 0xf6, 0xff}},
		{"fef3c7", color.RGBA{0xfe, 0xf3, 0xc7, 0xff}},
		{"#fff", color.RGBA{0x99, 0x99, 0x99, 0xff}},
		{"#zzzzzz", color.RGBA{0x99, 0x99, 0x99, 0xff}},
	}
	for _, tt := range tests {
		if got := parseHex(tt.in); got != tt.want {
			t.Errorf("parseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("정보처리기술사", 5); got != "정보..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
}
