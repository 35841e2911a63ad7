package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/techtree/internal/datasource"
	"github.com/vanderheijden86/techtree/pkg/debug"
	"github.com/vanderheijden86/techtree/pkg/model"
)

// PanelState is the detail panel lifecycle.
type PanelState int

const (
	PanelClosed PanelState = iota
	PanelLoading
	PanelShown
)

func (s PanelState) String() string {
	switch s {
	case PanelLoading:
		return "loading"
	case PanelShown:
		return "shown"
	default:
		return "closed"
	}
}

// DetailRequest tags an in-flight detail load. A response is applied only
// while it matches the panel's current request.
type DetailRequest struct {
	NodeID string
	Seq    uint64
}

// DetailPanel shows one certification. It moves Closed → Loading → Shown,
// Shown → Loading for another node, and back to Closed on Close. There is
// no error state: failed loads arrive as synthesized records.
type DetailPanel struct {
	theme   Theme
	siteURL string

	state    PanelState
	node     model.Node
	req      DetailRequest
	seq      uint64
	detail   model.CertificationDetail
	fallback bool

	width, height int
	viewport      viewport.Model
	spinner       spinner.Model
	md            *glamour.TermRenderer
	mdWidth       int
}

// NewDetailPanel returns a closed panel. siteURL prefixes detail links.
func NewDetailPanel(t Theme, siteURL string) DetailPanel {
	return DetailPanel{
		theme:    t,
		siteURL:  siteURL,
		viewport: viewport.New(0, 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Open moves to Loading for node and returns the tag the response must carry.
func (p *DetailPanel) Open(node model.Node) DetailRequest {
	p.seq++
	p.req = DetailRequest{NodeID: node.ID, Seq: p.seq}
	p.node = node
	p.state = PanelLoading
	p.fallback = false
	return p.req
}

// Commit applies a response. It reports false, leaving the panel untouched,
// when the panel is not Loading or req is not the current request.
func (p *DetailPanel) Commit(req DetailRequest, load datasource.DetailLoad) bool {
	if p.state != PanelLoading || req != p.req {
		return false
	}
	p.detail = load.Detail
	p.fallback = load.Fallback
	p.state = PanelShown
	p.refresh()
	p.viewport.GotoTop()
	return true
}

// Close hides the panel. Any in-flight response becomes stale.
func (p *DetailPanel) Close() {
	p.state = PanelClosed
	p.req = DetailRequest{}
}

func (p DetailPanel) State() PanelState { return p.state }
func (p DetailPanel) IsOpen() bool { return p.state != PanelClosed }
func (p DetailPanel) Node() model.Node { return p.node }
func (p DetailPanel) Request() DetailRequest { return p.req }
func (p DetailPanel) Fallback() bool { return p.fallback }
func (p DetailPanel) Detail() model.CertificationDetail { return p.detail }

// Link returns the web page of the shown certification, "" otherwise.
func (p DetailPanel) Link() string {
	if p.state != PanelShown {
		return ""
	}
	id := p.detail.ID
	if id <= 0 {
		var err error
		if id, err = p.node.CertID(); err != nil {
			return ""
		}
	}
	return DetailLink(p.siteURL, id)
}

// SpinnerTick starts the loading animation.
func (p DetailPanel) SpinnerTick() tea.Cmd {
	return p.spinner.Tick
}

// SetSize sets the outer size including the border.
func (p *DetailPanel) SetSize(width, height int) {
	if width == p.width && height == p.height {
		return
	}
	p.width, p.height = width, height
	p.viewport.Width = max(width-4, 1)
	p.viewport.Height = max(height-2, 1)
	if p.state == PanelShown {
		p.refresh()
	}
}

// Update advances the spinner while loading.
func (p DetailPanel) Update(msg tea.Msg) (DetailPanel, tea.Cmd) {
	if tick, ok := msg.(spinner.TickMsg); ok && p.state == PanelLoading {
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(tick)
		return p, cmd
	}
	return p, nil
}

// Scroll moves the content by n lines; negative scrolls up.
func (p *DetailPanel) Scroll(n int) {
	if n < 0 {
		p.viewport.LineUp(-n)
	} else {
		p.viewport.LineDown(n)
	}
}

func (p *DetailPanel) markdown(width int) *glamour.TermRenderer {
	if p.md != nil && p.mdWidth == width {
		return p.md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		debug.Log("detail panel: glamour unavailable: %v", err)
		return nil
	}
	p.md, p.mdWidth = r, width
	return r
}

func (p *DetailPanel) refresh() {
	p.viewport.SetContent(p.content(p.viewport.Width))
}

func (p *DetailPanel) content(width int) string {
	t := p.theme
	d := p.detail
	var b strings.Builder

	title := t.Renderer.NewStyle().Bold(true).Foreground(ColorPrimary).Render(truncateRunesHelper(d.Name, width, "…"))
	b.WriteString(title + "\n")
	b.WriteString(RenderLevelBadge(t, d.Level))
	if d.CategoryMain != "" {
		cat := d.CategoryMain
		if d.CategorySub != "" {
			cat += " / " + d.CategorySub
		}
		b.WriteString(" " + t.MutedText.Render(cat))
	}
	b.WriteString("\n")
	if p.fallback {
		b.WriteString(t.Renderer.NewStyle().Foreground(ColorWarning).Render("기본 정보 (서버 응답 없음)") + "\n")
	}
	b.WriteString("\n")

	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		b.WriteString(t.MutedText.Render(padRight(label, 10)) + value + "\n")
	}
	field("시행기관", d.Issuer)
	field("합격률", d.PassRate)
	field("필기", formatFee(d.FeeWritten))
	field("실기", formatFee(d.FeePractical))
	if d.Code != "" {
		field("코드", d.Code)
	}

	if d.Description != "" {
		b.WriteString("\n" + RenderDivider(width) + "\n")
		desc := d.Description
		if md := p.markdown(width); md != nil {
			if out, err := md.Render(desc); err == nil {
				desc = strings.Trim(out, "\n")
			}
		}
		b.WriteString(desc + "\n")
	}
	if d.Eligibility != "" {
		b.WriteString("\n" + t.MutedText.Render("응시자격") + "\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(d.Eligibility) + "\n")
	}
	if d.Subjects != "" {
		b.WriteString("\n" + t.MutedText.Render("시험과목") + "\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(d.Subjects) + "\n")
	}

	b.WriteString("\n" + t.MutedText.Render("선수 자격") + "\n")
	b.WriteString(RenderChips(t, names(d.Prerequisites), width) + "\n")
	b.WriteString("\n" + t.MutedText.Render("다음 단계") + "\n")
	b.WriteString(RenderChips(t, names(d.RequiredFor), width) + "\n")

	if link := p.Link(); link != "" {
		b.WriteString("\n" + t.InfoText.Render(link) + "\n")
		b.WriteString(t.MutedText.Render("y: 링크 복사") + "\n")
	}
	return b.String()
}

func names(cs []model.CertificationSimple) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name)
	}
	return out
}

// View renders the panel, or "" when closed.
func (p DetailPanel) View() string {
	if p.state == PanelClosed || p.width <= 0 || p.height <= 0 {
		return ""
	}
	var body string
	if p.state == PanelLoading {
		label := p.node.Data.Label
		if label == "" {
			label = p.node.ID
		}
		body = fmt.Sprintf("%s %s\n\n%s", p.spinner.View(), truncateRunesHelper(label, p.width-6, "…"),
			p.theme.MutedText.Render("불러오는 중…"))
	} else {
		body = p.viewport.View()
	}
	return p.theme.Panel.
		Width(p.width - 2).
		Height(p.height - 2).
		Render(body)
}
