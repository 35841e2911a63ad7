package export

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/techtree/pkg/debug"
	"github.com/vanderheijden86/techtree/pkg/graph"
	"github.com/vanderheijden86/techtree/pkg/metrics"
	"github.com/vanderheijden86/techtree/pkg/model"
)

// ErrNothingToExport is returned when the dataset has no nodes.
var ErrNothingToExport = errors.New("no nodes to export")

// GraphSnapshotOptions controls graph snapshot export behaviour.
type GraphSnapshotOptions struct {
	Path     string // Output path; format inferred from extension when Format empty
	Format   string // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title    string // Optional title rendered in summary block
	Category string // Category the dataset was loaded for; "" means all
	Origin   string // Where the dataset came from (live, demo, file, offline)
	Dataset  model.GraphDataset
}

// SaveGraphSnapshot renders the tech tree at its own coordinates as SVG or
// PNG, with a tier legend and a summary block above the graph.
func SaveGraphSnapshot(opts GraphSnapshotOptions) error {
	defer metrics.Timer(metrics.SnapshotExport)()

	format, path, err := snapshotFormat(opts.Format, opts.Path)
	if err != nil {
		return err
	}
	opts.Path = path

	ds, dropped := graph.Sanitize(opts.Dataset)
	for _, d := range dropped {
		debug.Log("export: snapshot skips edge %s: %s", d.Edge.ID, d.Reason)
	}
	if ds.IsEmpty() {
		return ErrNothingToExport
	}
	opts.Dataset = ds

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	layout := buildLayout(opts)
	switch format {
	case "svg":
		return renderSVG(opts.Path, layout)
	case "png":
		return renderPNG(opts.Path, layout)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

func snapshotFormat(format, path string) (string, string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if path != "" && filepath.Ext(path) == "" {
				path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return "", "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if path == "" {
		return "", "", fmt.Errorf("output path is required")
	}
	return format, path, nil
}

// --- layout computation ----------------------------------------------------

const (
	snapPadding = 36.0
	snapHeader  = 132.0
)

type layoutNode struct {
	ID    string
	Label string
	Level model.Level
	X, Y  float64
	W, H  float64
}

type layoutEdge struct {
	From, To string
	Animated bool
}

type layoutResult struct {
	Nodes   []layoutNode
	Edges   []layoutEdge
	Width   int
	Height  int
	Summary summaryInfo
}

type summaryInfo struct {
	Title     string
	Category  string
	Origin    string
	NodeCount int
	EdgeCount int
	PerTier   [5]int // index = rank, 0 = unknown
}

// buildLayout keeps the authored coordinates, shifted so the content starts
// below the header.
func buildLayout(opts GraphSnapshotOptions) layoutResult {
	ds := opts.Dataset
	b := graph.NewIndex(ds).Bounds()
	dx := snapPadding - b.MinX
	dy := snapPadding + snapHeader - b.MinY

	sum := summaryInfo{
		Title:     opts.Title,
		Category:  opts.Category,
		Origin:    opts.Origin,
		NodeCount: len(ds.Nodes),
		EdgeCount: len(ds.Edges),
	}
	if strings.TrimSpace(sum.Title) == "" {
		sum.Title = "Tech Tree"
	}
	if sum.Category == "" {
		sum.Category = "all"
	}

	nodes := make([]layoutNode, 0, len(ds.Nodes))
	for _, n := range ds.Nodes {
		label := n.Data.Label
		if label == "" {
			label = n.ID
		}
		nodes = append(nodes, layoutNode{
			ID:    n.ID,
			Label: label,
			Level: n.Data.Level,
			X:     n.Position.X + dx,
			Y:     n.Position.Y + dy,
			W:     graph.NodeWidth,
			H:     graph.NodeHeight,
		})
		sum.PerTier[n.Data.Level.Rank()]++
	}

	edges := make([]layoutEdge, 0, len(ds.Edges))
	for _, e := range ds.Edges {
		edges = append(edges, layoutEdge{From: e.Source, To: e.Target, Animated: e.Animated})
	}

	width := int(math.Ceil(b.Width() + 2*snapPadding))
	height := int(math.Ceil(b.Height() + 2*snapPadding + snapHeader))
	return layoutResult{
		Nodes:   nodes,
		Edges:   edges,
		Width:   max(width, 640),
		Height:  max(height, 480),
		Summary: sum,
	}
}

// anchors returns the segment between two node boxes: top to bottom when one
// is stacked above the other, side to side otherwise.
func anchors(from, to layoutNode) (x1, y1, x2, y2 float64) {
	fcx, tcx := from.X+from.W/2, to.X+to.W/2
	switch {
	case to.Y+to.H <= from.Y:
		return fcx, from.Y, tcx, to.Y + to.H
	case to.Y >= from.Y+from.H:
		return fcx, from.Y + from.H, tcx, to.Y
	case to.X >= from.X+from.W:
		return from.X + from.W, from.Y + from.H/2, to.X, to.Y + to.H/2
	default:
		return from.X, from.Y + from.H/2, to.X + to.W, to.Y + to.H/2
	}
}

// arrowHead returns the two back corners of an arrow head pointing at (x2, y2).
func arrowHead(x1, y1, x2, y2, size float64) (ax, ay, bx, by float64) {
	angle := math.Atan2(y2-y1, x2-x1)
	const spread = math.Pi / 7
	ax = x2 - size*math.Cos(angle-spread)
	ay = y2 - size*math.Sin(angle-spread)
	bx = x2 - size*math.Cos(angle+spread)
	by = y2 - size*math.Sin(angle+spread)
	return
}

// --- rendering -------------------------------------------------------------

var (
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorEdge     = color.RGBA{0x94, 0xa3, 0xb8, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorLegendBG = color.RGBA{0xee, 0xee, 0xee, 0xff}
)

func tierColors(l model.Level) (fill, border color.RGBA) {
	p := l.Palette()
	return parseHex(p.Background), parseHex(p.Border)
}

// parseHex reads "#rrggbb"; anything else is mid grey.
func parseHex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{0x99, 0x99, 0x99, 0xff}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{0x99, 0x99, 0x99, 0xff}
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
}

func tierName(l model.Level) string {
	if t := l.Tier(); t != "" {
		return t
	}
	return "unknown"
}

func renderPNG(path string, layout layoutResult) error {
	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(layout.Width)-32, snapHeader-12, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	drawSummaryBlock(dc, layout)
	drawLegend(dc, layout)

	nodePos := make(map[string]layoutNode, len(layout.Nodes))
	for _, n := range layout.Nodes {
		nodePos[n.ID] = n
	}
	dc.SetLineWidth(2)
	for _, e := range layout.Edges {
		x1, y1, x2, y2 := anchors(nodePos[e.From], nodePos[e.To])
		dc.SetColor(colorEdge)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
		ax, ay, bx, by := arrowHead(x1, y1, x2, y2, 10)
		dc.NewSubPath()
		dc.MoveTo(x2, y2)
		dc.LineTo(ax, ay)
		dc.LineTo(bx, by)
		dc.ClosePath()
		dc.Fill()
	}

	for _, n := range layout.Nodes {
		drawNode(dc, n)
	}
	return dc.SavePNG(path)
}

// drawNode draws one box. basicfont only covers ASCII, so Hangul labels are
// replaced by the node id line.
func drawNode(dc *gg.Context, n layoutNode) {
	fill, border := tierColors(n.Level)
	dc.SetColor(fill)
	dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 8)
	dc.Fill()
	dc.SetColor(border)
	dc.SetLineWidth(2)
	dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 8)
	dc.Stroke()

	title := "#" + n.ID
	if isASCII(n.Label) {
		title = truncate(n.Label, 24)
	}
	dc.SetColor(colorText)
	dc.DrawStringAnchored(title, n.X+n.W/2, n.Y+n.H/2-8, 0.5, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(tierName(n.Level), n.X+n.W/2, n.Y+n.H/2+10, 0.5, 0.5)
}

func drawSummaryBlock(dc *gg.Context, layout layoutResult) {
	s := layout.Summary
	dc.SetColor(colorText)
	dc.DrawStringAnchored(asciiOr(s.Title, "Tech Tree"), 32, 44, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(fmt.Sprintf("category: %s  origin: %s", asciiOr(s.Category, "(non-ascii)"), s.Origin), 32, 66, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("nodes: %d  edges: %d", s.NodeCount, s.EdgeCount), 32, 88, 0, 0.5)
	dc.DrawStringAnchored(tierSummary(s, tierName, "  "), 32, 110, 0, 0.5)
}

func drawLegend(dc *gg.Context, layout layoutResult) {
	boxW, boxH := 180.0, 100.0
	x := float64(layout.Width) - boxW - 24
	y := 24.0
	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored("Legend", x+12, y+16, 0, 0.5)
	for i, l := range model.Levels {
		fill, border := tierColors(l)
		ry := y + 36 + float64(i)*16
		dc.SetColor(fill)
		dc.DrawRoundedRectangle(x+12, ry-7, 14, 14, 3)
		dc.Fill()
		dc.SetColor(border)
		dc.DrawRoundedRectangle(x+12, ry-7, 14, 14, 3)
		dc.Stroke()
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(tierName(l), x+34, ry, 0, 0.5)
	}
}

func renderSVG(path string, layout layoutResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := renderSVGToWriter(file, layout); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func renderSVGToWriter(w io.Writer, layout layoutResult) error {
	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, "fill:"+css(colorBackdrop))
	canvas.Roundrect(16, 16, layout.Width-32, int(snapHeader-12), 10, 10, "fill:"+css(colorHeaderBG))

	s := layout.Summary
	textStyle := func(c color.RGBA, size int, bold bool) string {
		st := fmt.Sprintf("fill:%s;font-size:%dpx;font-family:sans-serif", css(c), size)
		if bold {
			st += ";font-weight:bold"
		}
		return st
	}
	canvas.Text(32, 46, s.Title, textStyle(colorText, 18, true))
	canvas.Text(32, 70, fmt.Sprintf("카테고리: %s · 데이터: %s", s.Category, s.Origin), textStyle(colorSubtle, 13, false))
	canvas.Text(32, 92, fmt.Sprintf("자격증 %d개 · 연결 %d개", s.NodeCount, s.EdgeCount), textStyle(colorSubtle, 13, false))
	canvas.Text(32, 114, tierSummary(s, func(l model.Level) string { return string(l) }, " · "), textStyle(colorSubtle, 13, false))

	lx, ly := layout.Width-204, 24
	canvas.Roundrect(lx, ly, 180, 100, 10, 10, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorStroke)))
	canvas.Text(lx+12, ly+18, "범례", textStyle(colorText, 13, true))
	for i, l := range model.Levels {
		fill, border := tierColors(l)
		ry := ly + 38 + i*16
		canvas.Roundrect(lx+12, ry-10, 14, 14, 3, 3, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(fill), css(border)))
		canvas.Text(lx+34, ry+1, fmt.Sprintf("%s (%s)", l, tierName(l)), textStyle(colorSubtle, 12, false))
	}

	nodePos := make(map[string]layoutNode, len(layout.Nodes))
	for _, n := range layout.Nodes {
		nodePos[n.ID] = n
	}
	for _, e := range layout.Edges {
		x1, y1, x2, y2 := anchors(nodePos[e.From], nodePos[e.To])
		st := fmt.Sprintf("stroke:%s;stroke-width:2", css(colorEdge))
		if e.Animated {
			st += ";stroke-dasharray:6,4"
		}
		canvas.Line(int(x1), int(y1), int(x2), int(y2), st)
		ax, ay, bx, by := arrowHead(x1, y1, x2, y2, 10)
		canvas.Polygon(
			[]int{int(x2), int(ax), int(bx)},
			[]int{int(y2), int(ay), int(by)},
			"fill:"+css(colorEdge),
		)
	}

	for _, n := range layout.Nodes {
		fill, border := tierColors(n.Level)
		x, y := int(n.X), int(n.Y)
		canvas.Roundrect(x, y, int(n.W), int(n.H), 8, 8,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:2", css(fill), css(border)))
		cx := x + int(n.W)/2
		canvas.Text(cx, y+int(n.H)/2-2, truncate(n.Label, 16), textStyle(colorText, 14, true)+";text-anchor:middle")
		canvas.Text(cx, y+int(n.H)/2+16, string(n.Level), textStyle(border, 11, false)+";text-anchor:middle")
	}

	canvas.End()
	return nil
}

// --- helpers ---------------------------------------------------------------

func tierSummary(s summaryInfo, name func(model.Level) string, sep string) string {
	parts := make([]string, 0, len(model.Levels)+1)
	for _, l := range model.Levels {
		parts = append(parts, fmt.Sprintf("%s %d", name(l), s.PerTier[l.Rank()]))
	}
	if s.PerTier[0] > 0 {
		parts = append(parts, fmt.Sprintf("? %d", s.PerTier[0]))
	}
	return strings.Join(parts, sep)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func asciiOr(s, alt string) string {
	if isASCII(s) {
		return s
	}
	return alt
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
