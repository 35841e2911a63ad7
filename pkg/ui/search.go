package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/techtree/pkg/model"
)

// NodeSearch is the "/" prompt matching node labels.
type NodeSearch struct {
	input  textinput.Model
	active bool
}

func NewNodeSearch() NodeSearch {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "자격증 이름"
	ti.CharLimit = 64
	return NodeSearch{input: ti}
}

func (s NodeSearch) Active() bool { return s.active }
func (s NodeSearch) Query() string { return strings.TrimSpace(s.input.Value()) }

// Start focuses the prompt with an empty query.
func (s *NodeSearch) Start() tea.Cmd {
	s.active = true
	s.input.SetValue("")
	return s.input.Focus()
}

// Stop blurs the prompt.
func (s *NodeSearch) Stop() {
	s.active = false
	s.input.Blur()
}

func (s NodeSearch) Update(msg tea.Msg) (NodeSearch, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s NodeSearch) View() string {
	return s.input.View()
}

// FindNode returns the first node, in dataset order, whose label contains
// query case-insensitively. Node ids match exactly.
func FindNode(nodes []model.Node, query string) (model.Node, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return model.Node{}, false
	}
	for _, n := range nodes {
		if n.ID == q || strings.Contains(strings.ToLower(n.Data.Label), q) {
			return n, true
		}
	}
	return model.Node{}, false
}
