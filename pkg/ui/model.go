// Package ui implements the tt terminal interface: a pannable, zoomable
// tech-tree canvas with a detail panel for the selected certification.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/techtree/internal/datasource"
	"github.com/vanderheijden86/techtree/pkg/debug"
	"github.com/vanderheijden86/techtree/pkg/graph"
	"github.com/vanderheijden86/techtree/pkg/metrics"
	"github.com/vanderheijden86/techtree/pkg/model"
	"github.com/vanderheijden86/techtree/pkg/watcher"
)

const (
	headerRows = 2
	footerRows = 1

	panStepCols = 4
	panStepRows = 2
	zoomStep    = 1.2
	wheelZoom   = 1.1

	defaultTimeout = 10 * time.Second
)

// Options configures a Model.
type Options struct {
	Graph      GraphLoader
	Details    DetailLoader
	Categories CategoryLoader // optional; refreshes CategoryList on start

	CategoryList []datasource.Category
	Category     string

	SiteURL    string
	MinZoom    float64
	MaxZoom    float64
	FitPadding float64
	Minimap    bool
	Timeout    time.Duration

	// Watcher, when set, reloads the graph whenever the file changes.
	Watcher *watcher.Watcher
}

type dragState struct {
	col, row int
	nodeID   string
	moved    bool
}

// Model is the root Bubble Tea model.
type Model struct {
	graphSrc GraphLoader
	details  DetailLoader
	catSrc   CategoryLoader
	watcher  *watcher.Watcher
	timeout  time.Duration

	theme   Theme
	width   int
	height  int
	canvas  Canvas
	panel   DetailPanel
	search  NodeSearch
	spinner spinner.Model

	categories  []datasource.Category
	categoryIdx int
	category    string
	graphSeq    uint64
	loading     bool

	dataset  model.GraphDataset
	index    *graph.Index
	order    []string
	focused  string
	origin   datasource.Origin
	fallback bool
	autoFit  bool

	drag     *dragState
	showHelp bool
	status   string
	copyFn   func(string) error
}

// NewModel builds the model. The first graph load is issued by Init.
func NewModel(opts Options) Model {
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	cats := opts.CategoryList
	if len(cats) == 0 {
		cats = datasource.DefaultCategories()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	graphSrc := opts.Graph
	if graphSrc == nil {
		graphSrc = datasource.WithDemoFallback(nil)
	}
	details := opts.Details
	if details == nil {
		details = datasource.WithSynthesizedFallback(nil)
	}
	site := opts.SiteURL
	if site == "" {
		site = "http://localhost:3000"
	}

	canvas := NewCanvas(theme, opts.MinZoom, opts.MaxZoom, opts.FitPadding)
	canvas.ShowMinimap = opts.Minimap

	m := Model{
		graphSrc:   graphSrc,
		details:    details,
		catSrc:     opts.Categories,
		watcher:    opts.Watcher,
		timeout:    timeout,
		theme:      theme,
		canvas:     canvas,
		panel:      NewDetailPanel(theme, site),
		search:     NewNodeSearch(),
		spinner:    spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		categories: cats,
		index:      graph.NewIndex(model.GraphDataset{}),
		copyFn:     clipboard.WriteAll,
	}
	m.categoryIdx = m.indexOfCategory(opts.Category)
	if m.categoryIdx < 0 {
		m.categories = append(m.categories, datasource.Category{Label: opts.Category, Value: opts.Category})
		m.categoryIdx = len(m.categories) - 1
	}
	m.category = m.categories[m.categoryIdx].Value
	return m
}

func (m Model) indexOfCategory(value string) int {
	for i, c := range m.categories {
		if c.Value == value {
			return i
		}
	}
	return -1
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadGraph(false)}
	if m.catSrc != nil {
		cmds = append(cmds, LoadCategoriesCmd(m.catSrc, m.timeout))
	}
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

// loadGraph issues a graph request for the current category. Earlier
// in-flight requests become stale.
func (m *Model) loadGraph(reload bool) tea.Cmd {
	m.graphSeq++
	m.loading = true
	return tea.Batch(
		LoadGraphCmd(m.graphSrc, m.category, m.graphSeq, m.timeout, reload),
		m.spinner.Tick,
	)
}

// SelectCategory switches to the i-th category and reloads the dataset.
// Selecting the current category is a no-op.
func (m *Model) SelectCategory(i int) tea.Cmd {
	if i < 0 || i >= len(m.categories) || i == m.categoryIdx {
		return nil
	}
	m.categoryIdx = i
	m.category = m.categories[i].Value
	m.status = "카테고리: " + m.categories[i].Label
	return m.loadGraph(false)
}

// ActivateNode opens the detail panel for id and requests its detail.
// Unknown ids are ignored.
func (m *Model) ActivateNode(id string) tea.Cmd {
	node, ok := m.index.Node(id)
	if !ok {
		return nil
	}
	m.focused = id
	req := m.panel.Open(node)
	m.layout()
	debug.Log("ui: activate node %s (seq %d)", id, req.Seq)
	return tea.Batch(LoadDetailCmd(m.details, node, req, m.timeout), m.panel.SpinnerTick())
}

// ClosePanel closes the detail panel. It never issues a request.
func (m *Model) ClosePanel() {
	if !m.panel.IsOpen() {
		return
	}
	m.panel.Close()
	m.layout()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		if m.autoFit {
			m.canvas.Fit(m.index.Bounds())
		}

	case GraphLoadedMsg:
		if msg.Seq != m.graphSeq || msg.Category != m.category {
			metrics.StaleResponseTotal.WithLabelValues("graph").Inc()
			debug.Log("ui: dropping graph response for %q (seq %d, want %q seq %d)", msg.Category, msg.Seq, m.category, m.graphSeq)
			return m, nil
		}
		m.applyGraph(msg)

	case DetailLoadedMsg:
		if !m.panel.Commit(msg.Request, msg.Load) {
			metrics.StaleResponseTotal.WithLabelValues("detail").Inc()
			debug.Log("ui: dropping detail for %s seq %d (panel %s, want %+v)", msg.Request.NodeID, msg.Request.Seq, m.panel.State(), m.panel.Request())
		}

	case CategoriesLoadedMsg:
		m.setCategories(msg.Categories)

	case FileChangedMsg:
		m.status = "파일 변경 감지, 다시 불러오는 중"
		cmds = append(cmds, m.loadGraph(true))
		if m.watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.watcher))
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		m.panel, cmd = m.panel.Update(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		cmds = append(cmds, m.handleMouse(msg))

	case tea.KeyMsg:
		if m.search.Active() {
			cmds = append(cmds, m.handleSearchKey(msg))
			break
		}
		cmd, quit := m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) applyGraph(msg GraphLoadedMsg) {
	prev := m.dataset
	ds, dropped := graph.Sanitize(msg.Load.Dataset)
	for _, d := range dropped {
		debug.Log("ui: dropped edge %s (%s → %s): %s", d.Edge.ID, d.Edge.Source, d.Edge.Target, d.Reason)
	}
	if len(dropped) > 0 {
		metrics.DroppedEdgeTotal.Add(float64(len(dropped)))
	}

	m.dataset = ds
	m.index = graph.NewIndex(ds)
	if order, err := m.index.TopoOrder(); err == nil {
		m.order = order
	} else {
		debug.Log("ui: %v; tab order follows the dataset", err)
		m.order = m.index.IDs()
	}
	m.loading = false
	m.origin = msg.Load.Origin
	m.fallback = msg.Load.Fallback

	bounds := m.index.Bounds()
	m.canvas.SetNodes(ds.Nodes, bounds)
	m.canvas.Fit(bounds)
	m.autoFit = true

	if _, ok := m.index.Node(m.focused); !ok {
		m.focused = ""
		if len(m.order) > 0 {
			m.focused = m.order[0]
		}
	}

	switch {
	case msg.Reload:
		m.status = "다시 불러옴: " + datasource.DiffDatasets(prev, ds).Summary()
	case msg.Load.Fallback:
		m.status = "서버 응답이 없어 예시 데이터를 표시합니다"
	default:
		m.status = fmt.Sprintf("자격증 %d개 · 연결 %d개", len(ds.Nodes), len(ds.Edges))
	}
}

func (m *Model) setCategories(cats []datasource.Category) {
	if len(cats) == 0 {
		return
	}
	current := m.categories[m.categoryIdx]
	m.categories = cats
	if i := m.indexOfCategory(current.Value); i >= 0 {
		m.categoryIdx = i
		return
	}
	m.categories = append(m.categories, current)
	m.categoryIdx = len(m.categories) - 1
}

func (m *Model) layout() {
	bodyH := max(m.height-headerRows-footerRows, 0)
	panelW := 0
	if m.panel.IsOpen() {
		panelW = min(max(m.width*2/5, 32), 56)
		if m.width-panelW < 20 {
			panelW = max(m.width-20, 0)
		}
	}
	m.canvas.SetSize(m.width-panelW, bodyH)
	m.panel.SetSize(panelW, bodyH)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	key := msg.String()
	if m.showHelp {
		switch key {
		case "ctrl+c", "q":
			return nil, true
		case "?", "esc":
			m.showHelp = false
		}
		return nil, false
	}

	switch key {
	case "ctrl+c", "q":
		return nil, true
	case "esc":
		m.ClosePanel()
	case "?":
		m.showHelp = true

	case "left", "h":
		m.userMoved()
		m.canvas.Pan(panStepCols, 0)
	case "right", "l":
		m.userMoved()
		m.canvas.Pan(-panStepCols, 0)
	case "up", "k":
		m.userMoved()
		m.canvas.Pan(0, panStepRows)
	case "down", "j":
		m.userMoved()
		m.canvas.Pan(0, -panStepRows)
	case "+", "=":
		m.userMoved()
		m.canvas.ZoomCenter(zoomStep)
	case "-", "_":
		m.userMoved()
		m.canvas.ZoomCenter(1 / zoomStep)
	case "0":
		m.canvas.Fit(m.index.Bounds())
		m.autoFit = true

	case "tab":
		m.moveFocus(1)
	case "shift+tab":
		m.moveFocus(-1)
	case "enter":
		if m.focused != "" {
			return m.ActivateNode(m.focused), false
		}

	case "c":
		return m.SelectCategory((m.categoryIdx + 1) % len(m.categories)), false
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		return m.SelectCategory(int(key[0] - '1')), false
	case "r":
		m.status = "다시 불러오는 중"
		return m.loadGraph(true), false

	case "/":
		return m.search.Start(), false
	case "y":
		m.copyLink()
	case "m":
		m.canvas.ShowMinimap = !m.canvas.ShowMinimap
	case "pgdown", "ctrl+d":
		m.panel.Scroll(m.canvas.Height / 2)
	case "pgup", "ctrl+u":
		m.panel.Scroll(-m.canvas.Height / 2)
	}
	return nil, false
}

func (m *Model) userMoved() {
	m.autoFit = false
}

func (m *Model) moveFocus(delta int) {
	if len(m.order) == 0 {
		return
	}
	pos := -1
	for i, id := range m.order {
		if id == m.focused {
			pos = i
			break
		}
	}
	switch {
	case pos < 0 && delta > 0:
		pos = 0
	case pos < 0:
		pos = len(m.order) - 1
	default:
		pos = (pos + delta + len(m.order)) % len(m.order)
	}
	m.focused = m.order[pos]
	if n, ok := m.index.Node(m.focused); ok && !m.canvas.Visible(n) {
		m.userMoved()
		m.canvas.CenterOnNode(n)
	}
}

func (m *Model) copyLink() {
	link := m.panel.Link()
	if link == "" {
		m.status = "복사할 링크가 없습니다"
		return
	}
	if err := m.copyFn(link); err != nil {
		debug.Log("ui: clipboard: %v", err)
		m.status = fmt.Sprintf("클립보드 오류: %v", err)
		return
	}
	m.status = "링크 복사됨: " + link
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.search.Stop()
		return nil
	case "enter":
		q := m.search.Query()
		m.search.Stop()
		n, ok := FindNode(m.dataset.Nodes, q)
		if !ok {
			m.status = fmt.Sprintf("%q: 일치하는 자격증이 없습니다", q)
			return nil
		}
		m.focused = n.ID
		m.userMoved()
		m.canvas.CenterOnNode(n)
		m.status = "찾음: " + n.Data.Label
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if n, ok := FindNode(m.dataset.Nodes, m.search.Query()); ok {
		m.focused = n.ID
	}
	return cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	col, row := msg.X, msg.Y-headerRows
	inCanvas := col >= 0 && col < m.canvas.Width && row >= 0 && row < m.canvas.Height
	inPanel := m.panel.IsOpen() && col >= m.canvas.Width && row >= 0 && row < m.canvas.Height

	switch {
	case msg.Button == tea.MouseButtonWheelUp && msg.Action == tea.MouseActionPress:
		if inPanel {
			m.panel.Scroll(-3)
		} else if inCanvas {
			m.userMoved()
			m.canvas.ZoomAt(wheelZoom, col, row)
		}
	case msg.Button == tea.MouseButtonWheelDown && msg.Action == tea.MouseActionPress:
		if inPanel {
			m.panel.Scroll(3)
		} else if inCanvas {
			m.userMoved()
			m.canvas.ZoomAt(1/wheelZoom, col, row)
		}

	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		if !inCanvas {
			return nil
		}
		id, _ := m.canvas.HitTest(col, row)
		m.drag = &dragState{col: col, row: row, nodeID: id}

	case msg.Action == tea.MouseActionMotion && m.drag != nil:
		dc, dr := col-m.drag.col, row-m.drag.row
		if dc == 0 && dr == 0 {
			return nil
		}
		m.drag.moved = true
		m.drag.col, m.drag.row = col, row
		m.userMoved()
		m.canvas.Pan(dc, dr)

	case msg.Action == tea.MouseActionRelease && m.drag != nil:
		d := m.drag
		m.drag = nil
		if !d.moved && d.nodeID != "" {
			return m.ActivateNode(d.nodeID)
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// VIEW
// ══════════════════════════════════════════════════════════════════════════════

func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	header := m.renderHeader()

	var body string
	switch {
	case m.showHelp:
		body = lipgloss.Place(m.width, m.canvas.Height, lipgloss.Center, lipgloss.Center, m.renderHelp())
	case m.loading && m.dataset.IsEmpty():
		body = lipgloss.Place(m.canvas.Width, m.canvas.Height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" 기술 트리를 불러오는 중…")
	default:
		selected := ""
		if m.panel.IsOpen() {
			selected = m.panel.Node().ID
		}
		body = m.canvas.Render(m.dataset, m.index, selected, m.focused)
	}
	if !m.showHelp && m.panel.IsOpen() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.panel.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderFooter())
}

func (m Model) renderHeader() string {
	t := m.theme
	title := t.Header.Render("기술 트리")

	tabs := make([]string, 0, len(m.categories))
	for i, c := range m.categories {
		label := c.Label
		if i < 9 {
			label = fmt.Sprintf("%d %s", i+1, label)
		}
		if i == m.categoryIdx {
			tabs = append(tabs, t.Renderer.NewStyle().Bold(true).Foreground(ColorPrimary).Underline(true).Render(label))
		} else {
			tabs = append(tabs, t.MutedText.Render(label))
		}
	}
	line1 := truncateLine(title+" "+strings.Join(tabs, "  "), m.width)

	origin := RenderOriginBadge(t, string(m.origin), m.fallback)
	line2 := truncateLine(RenderLegend(t)+"   "+t.MutedText.Render("데이터:")+" "+origin, m.width)
	return line1 + "\n" + line2
}

func (m Model) renderFooter() string {
	t := m.theme
	if m.search.Active() {
		return truncateLine(m.search.View(), m.width)
	}
	left := ""
	if m.loading {
		left = m.spinner.View() + " "
	}
	left += m.status
	hints := t.MutedText.Render("←↑↓→ 이동 · +/- 확대 · 0 맞춤 · tab 선택 · enter 상세 · / 검색 · ? 도움말 · q 종료")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(hints)
	if gap < 2 {
		return truncateLine(left, m.width)
	}
	return left + strings.Repeat(" ", gap) + hints
}

func (m Model) renderHelp() string {
	rows := [][2]string{
		{"←↑↓→ / hjkl", "화면 이동"},
		{"마우스 드래그", "화면 이동"},
		{"+ / - / 휠", "확대 / 축소"},
		{"0", "전체 보기"},
		{"tab / shift+tab", "자격증 선택 이동"},
		{"enter / 클릭", "상세 정보 열기"},
		{"esc", "상세 정보 닫기"},
		{"c / 1-9", "카테고리 변경"},
		{"/", "자격증 검색"},
		{"y", "상세 링크 복사"},
		{"m", "미니맵 켜기/끄기"},
		{"pgup / pgdown", "상세 정보 스크롤"},
		{"r", "다시 불러오기"},
		{"q", "종료"},
	}
	var b strings.Builder
	for _, r := range rows {
		b.WriteString(m.theme.Renderer.NewStyle().Bold(true).Foreground(ColorPrimary).Render(padRight(r[0], 18)))
		b.WriteString(r[1] + "\n")
	}
	return m.theme.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

func truncateLine(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

// Accessors used by the CLI and tests.

func (m Model) Dataset() model.GraphDataset { return m.dataset }
func (m Model) Category() string { return m.category }
func (m Model) Focused() string { return m.focused }
func (m Model) Panel() DetailPanel { return m.panel }
func (m Model) Canvas() Canvas { return m.canvas }
func (m Model) Origin() datasource.Origin { return m.origin }
func (m Model) IsFallback() bool { return m.fallback }
func (m Model) Loading() bool { return m.loading }
func (m Model) Status() string { return m.status }
