package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/techtree/pkg/model"
)

// ══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE - Adaptive colors for light and dark terminals
// ══════════════════════════════════════════════════════════════════════════════

var (
	ColorBg          = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}
	ColorBgSubtle    = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#363949"}
	ColorBgHighlight = lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#44475A"}
	ColorText        = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext     = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted       = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGES AND CHIPS
// ══════════════════════════════════════════════════════════════════════════════

// RenderLevelBadge returns a tier badge colored with the node palette.
func RenderLevelBadge(t Theme, l model.Level) string {
	c := t.LevelColor(l)
	label := string(l)
	if label == "" {
		label = "?"
	}
	return t.Renderer.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#1A1A1A"}).
		Background(c.Fill).
		Bold(true).
		Padding(0, 1).
		Render(label)
}

// RenderOriginBadge marks where the current dataset came from. Fallback
// data is shown in the warning color.
func RenderOriginBadge(t Theme, origin string, fallback bool) string {
	fg := ColorSuccess
	if fallback {
		fg = ColorWarning
	}
	if origin == "" {
		origin = "?"
	}
	return t.Renderer.NewStyle().Foreground(fg).Bold(true).Render(origin)
}

// RenderChips lays out labels as chips, wrapping to width.
func RenderChips(t Theme, labels []string, width int) string {
	if len(labels) == 0 {
		return t.MutedText.Render("없음")
	}
	var lines []string
	var line []string
	used := 0
	for _, l := range labels {
		chip := t.Chip.Render(truncateRunesHelper(l, max(width-2, 1), "…"))
		w := lipgloss.Width(chip)
		if used > 0 && used+1+w > width {
			lines = append(lines, strings.Join(line, " "))
			line, used = nil, 0
		}
		if used > 0 {
			used++
		}
		line = append(line, chip)
		used += w
	}
	if len(line) > 0 {
		lines = append(lines, strings.Join(line, " "))
	}
	return strings.Join(lines, "\n")
}

// RenderDivider renders a horizontal divider line.
func RenderDivider(width int) string {
	if width <= 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(ColorBgHighlight).
		Render(strings.Repeat("─", width))
}
