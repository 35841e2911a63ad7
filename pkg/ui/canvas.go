package ui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/techtree/pkg/graph"
	"github.com/vanderheijden86/techtree/pkg/metrics"
	"github.com/vanderheijden86/techtree/pkg/model"
)

// World units covered by one terminal cell at zoom 1. Cells are roughly
// twice as tall as they are wide.
const (
	worldPerCol = 10.0
	worldPerRow = 20.0
)

// Zoom defaults.
const (
	DefaultMinZoom    = 0.3
	DefaultMaxZoom    = 2.0
	DefaultFitPadding = 0.2
)

// cellWidth measures runes with ambiguous-width characters as narrow, the
// way the terminal renderer does, so box drawing stays one cell wide.
var cellWidth = &runewidth.Condition{EastAsianWidth: false}

// Canvas maps world coordinates onto a grid of terminal cells.
// OffsetX/OffsetY is the world point shown in the top-left cell.
type Canvas struct {
	Width, Height    int
	Zoom             float64
	OffsetX, OffsetY float64
	MinZoom, MaxZoom float64
	Padding          float64
	ShowMinimap      bool

	theme  Theme
	nodes  []model.Node
	bounds graph.Rect
}

// NewCanvas returns a canvas with the given zoom bounds and fit padding.
// Non-positive values take the defaults.
func NewCanvas(t Theme, minZoom, maxZoom, padding float64) Canvas {
	if minZoom <= 0 {
		minZoom = DefaultMinZoom
	}
	if maxZoom <= 0 {
		maxZoom = DefaultMaxZoom
	}
	if maxZoom < minZoom {
		minZoom, maxZoom = maxZoom, minZoom
	}
	if padding < 0 {
		padding = DefaultFitPadding
	}
	return Canvas{Zoom: 1, MinZoom: minZoom, MaxZoom: maxZoom, Padding: padding, theme: t}
}

// SetSize sets the drawable area in cells.
func (c *Canvas) SetSize(width, height int) {
	c.Width, c.Height = max(width, 0), max(height, 0)
}

// SetNodes replaces the nodes used for hit testing and the minimap.
func (c *Canvas) SetNodes(nodes []model.Node, bounds graph.Rect) {
	c.nodes = nodes
	c.bounds = bounds
}

// Fit zooms and centers so bounds plus padding fills the canvas.
func (c *Canvas) Fit(b graph.Rect) {
	w, h := b.Width(), b.Height()
	if w <= 0 {
		w = graph.NodeWidth
	}
	if h <= 0 {
		h = graph.NodeHeight
	}
	cx, cy := b.MinX+w/2, b.MinY+h/2
	if c.Width <= 0 || c.Height <= 0 {
		c.Zoom = clampFloat(1, c.MinZoom, c.MaxZoom)
		c.CenterOn(cx, cy)
		return
	}
	pw, ph := w*(1+c.Padding), h*(1+c.Padding)
	zx := float64(c.Width) * worldPerCol / pw
	zy := float64(c.Height) * worldPerRow / ph
	c.Zoom = clampFloat(math.Min(zx, zy), c.MinZoom, c.MaxZoom)
	c.CenterOn(cx, cy)
}

// CenterOn moves the view so world point (x, y) is in the middle.
func (c *Canvas) CenterOn(x, y float64) {
	c.OffsetX = x - float64(c.Width)*worldPerCol/c.Zoom/2
	c.OffsetY = y - float64(c.Height)*worldPerRow/c.Zoom/2
}

// CenterOnNode centers the view on a node's footprint.
func (c *Canvas) CenterOnNode(n model.Node) {
	c.CenterOn(n.Position.X+graph.NodeWidth/2, n.Position.Y+graph.NodeHeight/2)
}

// Pan shifts the content by the given number of cells.
func (c *Canvas) Pan(dCols, dRows int) {
	c.OffsetX -= float64(dCols) * worldPerCol / c.Zoom
	c.OffsetY -= float64(dRows) * worldPerRow / c.Zoom
}

// ZoomAt scales by factor keeping the world point under (col, row) fixed.
// The result is clamped to [MinZoom, MaxZoom].
func (c *Canvas) ZoomAt(factor float64, col, row int) {
	if factor <= 0 {
		return
	}
	fx, fy := float64(col)+0.5, float64(row)+0.5
	wx, wy := c.toWorld(fx, fy)
	c.Zoom = clampFloat(c.Zoom*factor, c.MinZoom, c.MaxZoom)
	c.OffsetX = wx - fx*worldPerCol/c.Zoom
	c.OffsetY = wy - fy*worldPerRow/c.Zoom
}

// ZoomCenter zooms about the middle of the canvas.
func (c *Canvas) ZoomCenter(factor float64) {
	c.ZoomAt(factor, c.Width/2, c.Height/2)
}

func (c Canvas) toCell(x, y float64) (float64, float64) {
	return (x - c.OffsetX) * c.Zoom / worldPerCol, (y - c.OffsetY) * c.Zoom / worldPerRow
}

func (c Canvas) toWorld(col, row float64) (float64, float64) {
	return col*worldPerCol/c.Zoom + c.OffsetX, row*worldPerRow/c.Zoom + c.OffsetY
}

type cellRect struct {
	col, row, w, h int
}

func (r cellRect) contains(col, row int) bool {
	return col >= r.col && col < r.col+r.w && row >= r.row && row < r.row+r.h
}

func (c Canvas) nodeRect(n model.Node) cellRect {
	col, row := c.toCell(n.Position.X, n.Position.Y)
	return cellRect{
		col: int(math.Round(col)),
		row: int(math.Round(row)),
		w:   max(int(math.Round(graph.NodeWidth*c.Zoom/worldPerCol)), 3),
		h:   max(int(math.Round(graph.NodeHeight*c.Zoom/worldPerRow)), 1),
	}
}

// HitTest returns the id of the topmost node covering the cell.
func (c Canvas) HitTest(col, row int) (string, bool) {
	for i := len(c.nodes) - 1; i >= 0; i-- {
		if c.nodeRect(c.nodes[i]).contains(col, row) {
			return c.nodes[i].ID, true
		}
	}
	return "", false
}

// Visible reports whether any part of the node is on screen.
func (c Canvas) Visible(n model.Node) bool {
	r := c.nodeRect(n)
	return r.col+r.w > 0 && r.row+r.h > 0 && r.col < c.Width && r.row < c.Height
}

// ══════════════════════════════════════════════════════════════════════════════
// CELL GRID
// ══════════════════════════════════════════════════════════════════════════════

type cell struct {
	r    rune
	st   int
	cont bool // right half of a double-width rune
}

type grid struct {
	w, h   int
	cells  [][]cell
	styles []lipgloss.Style
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, cells: make([][]cell, h), styles: []lipgloss.Style{{}}}
	for i := range g.cells {
		row := make([]cell, w)
		for j := range row {
			row[j] = cell{r: ' '}
		}
		g.cells[i] = row
	}
	return g
}

func (g *grid) style(s lipgloss.Style) int {
	g.styles = append(g.styles, s)
	return len(g.styles) - 1
}

func (g *grid) in(col, row int) bool {
	return col >= 0 && col < g.w && row >= 0 && row < g.h
}

func (g *grid) clear(col, row int) {
	if !g.in(col, row) {
		return
	}
	cur := g.cells[row][col]
	if cur.cont && col > 0 {
		g.cells[row][col-1] = cell{r: ' '}
	}
	if !cur.cont && cellWidth.RuneWidth(cur.r) == 2 && col+1 < g.w {
		g.cells[row][col+1] = cell{r: ' '}
	}
	g.cells[row][col] = cell{r: ' '}
}

func (g *grid) set(col, row int, r rune, st int) {
	if !g.in(col, row) {
		return
	}
	w := cellWidth.RuneWidth(r)
	if w == 2 && col+1 >= g.w {
		r, w = ' ', 1
	}
	g.clear(col, row)
	if w == 2 {
		g.clear(col+1, row)
	}
	g.cells[row][col] = cell{r: r, st: st}
	if w == 2 {
		g.cells[row][col+1] = cell{st: st, cont: true}
	}
}

// text writes s starting at col and returns the column after it.
func (g *grid) text(col, row int, s string, st int) int {
	for _, r := range s {
		g.set(col, row, r, st)
		col += max(cellWidth.RuneWidth(r), 1)
	}
	return col
}

func (g *grid) line(col, row int, r rune, st int) {
	if !g.in(col, row) {
		return
	}
	switch cur := g.cells[row][col].r; {
	case cur == '│' && r == '─', cur == '─' && r == '│':
		r = '┼'
	}
	g.set(col, row, r, st)
}

func (g *grid) String() string {
	var b strings.Builder
	for i, row := range g.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		runStyle := -1
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runStyle <= 0 {
				b.WriteString(run.String())
			} else {
				b.WriteString(g.styles[runStyle].Render(run.String()))
			}
			run.Reset()
		}
		for _, c := range row {
			if c.cont {
				continue
			}
			if c.st != runStyle {
				flush()
				runStyle = c.st
			}
			run.WriteRune(c.r)
		}
		flush()
	}
	return b.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// EDGES
// ══════════════════════════════════════════════════════════════════════════════

type point struct{ col, row int }

type direction int

const (
	dirUp direction = iota
	dirDown
	dirLeft
	dirRight
)

func dirOf(a, b point) direction {
	switch {
	case b.row < a.row:
		return dirUp
	case b.row > a.row:
		return dirDown
	case b.col < a.col:
		return dirLeft
	default:
		return dirRight
	}
}

// corners[in][out] joins the side a path enters from to the side it leaves by.
var corners = map[direction]map[direction]rune{
	dirUp:    {dirLeft: '┐', dirRight: '┌'},
	dirDown:  {dirLeft: '┘', dirRight: '└'},
	dirRight: {dirUp: '┘', dirDown: '┐'},
	dirLeft:  {dirUp: '└', dirDown: '┌'},
}

var arrowHeads = map[direction]rune{
	dirUp:    '▲',
	dirDown:  '▼',
	dirLeft:  '◀',
	dirRight: '▶',
}

func compactPath(pts []point) []point {
	out := pts[:0:0]
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		if len(out) >= 2 {
			a, b := out[len(out)-2], out[len(out)-1]
			if (a.col == b.col && b.col == p.col) || (a.row == b.row && b.row == p.row) {
				out[len(out)-1] = p
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

// polyline draws an orthogonal path and puts an arrow head on its last cell.
func (g *grid) polyline(pts []point, st, arrowSt int) {
	pts = compactPath(pts)
	if len(pts) < 2 {
		return
	}
	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		ch := '│'
		if a.row == b.row {
			ch = '─'
		}
		dc, dr := sign(b.col-a.col), sign(b.row-a.row)
		for p := a; ; p = (point{p.col + dc, p.row + dr}) {
			g.line(p.col, p.row, ch, st)
			if p == b {
				break
			}
		}
	}
	for i := 1; i+1 < len(pts); i++ {
		in, out := dirOf(pts[i-1], pts[i]), dirOf(pts[i], pts[i+1])
		if r, ok := corners[in][out]; ok {
			g.set(pts[i].col, pts[i].row, r, st)
		}
	}
	last := pts[len(pts)-1]
	g.set(last.col, last.row, arrowHeads[dirOf(pts[len(pts)-2], last)], arrowSt)
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

// edgePath routes from the source box to the target box: vertically with a
// horizontal jog halfway when the boxes are stacked, else sideways.
func edgePath(s, t cellRect) []point {
	sx, tx := s.col+s.w/2, t.col+t.w/2
	switch {
	case t.row+t.h < s.row:
		y0, y1 := s.row-1, t.row+t.h
		mid := (y0 + y1) / 2
		return []point{{sx, y0}, {sx, mid}, {tx, mid}, {tx, y1}}
	case t.row > s.row+s.h:
		y0, y1 := s.row+s.h, t.row-1
		mid := (y0 + y1) / 2
		return []point{{sx, y0}, {sx, mid}, {tx, mid}, {tx, y1}}
	}
	sy, ty := s.row+s.h/2, t.row+t.h/2
	if t.col >= s.col+s.w {
		x0, x1 := s.col+s.w, t.col-1
		mid := (x0 + x1) / 2
		return []point{{x0, sy}, {mid, sy}, {mid, ty}, {x1, ty}}
	}
	x0, x1 := s.col-1, t.col+t.w
	mid := (x0 + x1) / 2
	return []point{{x0, sy}, {mid, sy}, {mid, ty}, {x1, ty}}
}

// ══════════════════════════════════════════════════════════════════════════════
// RENDER
// ══════════════════════════════════════════════════════════════════════════════

type nodeStyles struct {
	border, label, sub, selected int
}

// Render draws ds at the current transform. Edges touching the chain of the
// selected (or else focused) node are highlighted; the focused node gets a
// heavy border. Edges whose endpoints are unknown are skipped.
func (c Canvas) Render(ds model.GraphDataset, idx *graph.Index, selected, focused string) string {
	defer metrics.Timer(metrics.CanvasRender)()

	if c.Width <= 0 || c.Height <= 0 {
		return ""
	}
	t := c.theme
	r := t.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	g := newGrid(c.Width, c.Height)

	edgeSt := g.style(r.NewStyle().Foreground(t.Edge))
	edgeLitSt := g.style(r.NewStyle().Foreground(t.EdgeLit).Bold(true))
	arrowSt := g.style(r.NewStyle().Foreground(t.Edge).Bold(true))
	byRank := make(map[int]nodeStyles, 4)
	for rank, l := range model.Levels {
		lc := t.LevelColor(l)
		byRank[rank+1] = nodeStyles{
			border:   g.style(r.NewStyle().Foreground(lc.Border)),
			label:    g.style(r.NewStyle().Foreground(ColorText).Bold(true)),
			sub:      g.style(r.NewStyle().Foreground(lc.Border)),
			selected: g.style(r.NewStyle().Foreground(lipgloss.Color("#1A1A1A")).Background(lc.Fill).Bold(true)),
		}
	}
	stylesFor := func(l model.Level) nodeStyles {
		if s, ok := byRank[l.Rank()]; ok {
			return s
		}
		return byRank[1]
	}

	var chain map[string]bool
	if idx != nil {
		anchor := selected
		if anchor == "" {
			anchor = focused
		}
		chain = idx.Chain(anchor)
	}

	rects := make(map[string]cellRect, len(ds.Nodes))
	for _, n := range ds.Nodes {
		rects[n.ID] = c.nodeRect(n)
	}

	for _, e := range ds.Edges {
		s, okS := rects[e.Source]
		tr, okT := rects[e.Target]
		if !okS || !okT || e.Source == e.Target {
			continue
		}
		st, ast := edgeSt, arrowSt
		if chain[e.Source] && chain[e.Target] {
			st, ast = edgeLitSt, edgeLitSt
		}
		g.polyline(edgePath(s, tr), st, ast)
	}

	for _, n := range ds.Nodes {
		rc := rects[n.ID]
		if rc.col >= c.Width || rc.row >= c.Height || rc.col+rc.w <= 0 || rc.row+rc.h <= 0 {
			continue
		}
		g.node(rc, n, stylesFor(n.Data.Level), n.ID == focused, n.ID == selected)
	}

	if c.ShowMinimap {
		c.drawMinimap(g, r, stylesFor)
	}
	return g.String()
}

func (g *grid) node(rc cellRect, n model.Node, ns nodeStyles, focused, selected bool) {
	label := n.Data.Label
	if label == "" {
		label = n.ID
	}
	labelSt := ns.label
	if selected {
		labelSt = ns.selected
	}

	if rc.h < 3 {
		inner := rc.w - 2
		text := truncateCells(label, inner)
		open, closing := '[', ']'
		if focused {
			open, closing = '▐', '▌'
		}
		row := rc.row + rc.h/2
		for col := rc.col; col < rc.col+rc.w; col++ {
			g.clear(col, row)
		}
		g.set(rc.col, row, open, ns.border)
		g.text(rc.col+1+(inner-cellWidth.StringWidth(text))/2, row, text, labelSt)
		g.set(rc.col+rc.w-1, row, closing, ns.border)
		return
	}

	b := lipgloss.RoundedBorder()
	if focused {
		b = lipgloss.ThickBorder()
	}
	right, bottom := rc.col+rc.w-1, rc.row+rc.h-1
	for row := rc.row; row <= bottom; row++ {
		for col := rc.col; col <= right; col++ {
			var ch string
			switch {
			case row == rc.row && col == rc.col:
				ch = b.TopLeft
			case row == rc.row && col == right:
				ch = b.TopRight
			case row == bottom && col == rc.col:
				ch = b.BottomLeft
			case row == bottom && col == right:
				ch = b.BottomRight
			case row == rc.row:
				ch = b.Top
			case row == bottom:
				ch = b.Bottom
			case col == rc.col:
				ch = b.Left
			case col == right:
				ch = b.Right
			default:
				ch = " "
			}
			st := ns.border
			if ch == " " && selected {
				st = ns.selected
			}
			g.set(col, row, []rune(ch)[0], st)
		}
	}

	inner := rc.w - 2
	rows := rc.h - 2
	text := truncateCells(label, inner)
	labelRow := rc.row + 1 + (rows-1)/2
	if rows >= 2 {
		labelRow = rc.row + 1 + (rows-2)/2
	}
	g.text(rc.col+1+(inner-cellWidth.StringWidth(text))/2, labelRow, text, labelSt)

	if rows >= 2 {
		sub := string(n.Data.Level)
		if n.Data.Category != "" {
			sub += " · " + n.Data.Category
		}
		sub = truncateCells(sub, inner)
		subSt := ns.sub
		if selected {
			subSt = ns.selected
		}
		g.text(rc.col+1+(inner-cellWidth.StringWidth(sub))/2, labelRow+1, sub, subSt)
	}
}

// truncateCells cuts s to width cells using the canvas width rules.
func truncateCells(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if cellWidth.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return cellWidth.Truncate(s, width, "…")
}

// ══════════════════════════════════════════════════════════════════════════════
// MINIMAP
// ══════════════════════════════════════════════════════════════════════════════

const (
	minimapMaxW = 26
	minimapMaxH = 9
)

func (c Canvas) drawMinimap(g *grid, r *lipgloss.Renderer, stylesFor func(model.Level) nodeStyles) {
	mw, mh := min(minimapMaxW, c.Width/3), min(minimapMaxH, c.Height/3)
	if mw < 8 || mh < 4 || len(c.nodes) == 0 {
		return
	}
	c0, r0 := c.Width-mw, c.Height-mh
	frameSt := g.style(r.NewStyle().Foreground(c.theme.Border))
	viewSt := g.style(r.NewStyle().Foreground(c.theme.Primary))

	b := lipgloss.NormalBorder()
	for row := r0; row < r0+mh; row++ {
		for col := c0; col < c0+mw; col++ {
			ch := ' '
			switch {
			case row == r0 && col == c0:
				ch = []rune(b.TopLeft)[0]
			case row == r0 && col == c0+mw-1:
				ch = []rune(b.TopRight)[0]
			case row == r0+mh-1 && col == c0:
				ch = []rune(b.BottomLeft)[0]
			case row == r0+mh-1 && col == c0+mw-1:
				ch = []rune(b.BottomRight)[0]
			case row == r0 || row == r0+mh-1:
				ch = '─'
			case col == c0 || col == c0+mw-1:
				ch = '│'
			}
			g.set(col, row, ch, frameSt)
		}
	}

	// World extent covers the content and the current viewport.
	vx0, vy0 := c.OffsetX, c.OffsetY
	vx1, vy1 := c.toWorld(float64(c.Width), float64(c.Height))
	wx0, wy0 := math.Min(c.bounds.MinX, vx0), math.Min(c.bounds.MinY, vy0)
	wx1, wy1 := math.Max(c.bounds.MaxX, vx1), math.Max(c.bounds.MaxY, vy1)
	iw, ih := float64(mw-2), float64(mh-2)
	sx, sy := (wx1-wx0)/iw, (wy1-wy0)/ih
	if sx <= 0 || sy <= 0 {
		return
	}
	project := func(x, y float64) (int, int) {
		col := c0 + 1 + int(math.Min(iw-1, math.Max(0, (x-wx0)/sx)))
		row := r0 + 1 + int(math.Min(ih-1, math.Max(0, (y-wy0)/sy)))
		return col, row
	}

	ax, ay := project(vx0, vy0)
	bx, by := project(vx1, vy1)
	for col := ax; col <= bx; col++ {
		g.set(col, ay, '·', viewSt)
		g.set(col, by, '·', viewSt)
	}
	for row := ay; row <= by; row++ {
		g.set(ax, row, '·', viewSt)
		g.set(bx, row, '·', viewSt)
	}

	for _, n := range c.nodes {
		col, row := project(n.Position.X+graph.NodeWidth/2, n.Position.Y+graph.NodeHeight/2)
		g.set(col, row, '■', stylesFor(n.Data.Level).border)
	}
}
