package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/techtree/pkg/model"
)

// TermProfile holds the detected terminal color profile, computed once so
// style helpers can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns hex on TrueColor terminals and NoColor otherwise, so
// low-color terminals keep their own background instead of an approximation.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns hex on ANSI256+ terminals and ANSI white below that.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// LevelColors are the adaptive colors for one certification tier.
type LevelColors struct {
	Border lipgloss.AdaptiveColor
	Fill   lipgloss.AdaptiveColor
}

type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Edge      lipgloss.AdaptiveColor
	EdgeLit   lipgloss.AdaptiveColor

	// Tier colors, light variant taken from the node palette.
	Craftsman    LevelColors
	Industrial   LevelColors
	Engineer     LevelColors
	Professional LevelColors

	Base      lipgloss.Style
	Header    lipgloss.Style
	MutedText lipgloss.Style
	InfoText  lipgloss.Style
	Panel     lipgloss.Style
	Chip      lipgloss.Style
}

func levelColors(l model.Level, dark string) LevelColors {
	p := l.Palette()
	return LevelColors{
		Border: lipgloss.AdaptiveColor{Light: p.Border, Dark: dark},
		Fill:   lipgloss.AdaptiveColor{Light: p.Background, Dark: p.Background},
	}
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"},
		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
		Edge:      lipgloss.AdaptiveColor{Light: "#888888", Dark: "#6272A4"},
		EdgeLit:   lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"},

		Craftsman:    levelColors(model.LevelCraftsman, "#C792EA"),
		Industrial:   levelColors(model.LevelIndustrial, "#50FA7B"),
		Engineer:     levelColors(model.LevelEngineer, "#8BE9FD"),
		Professional: levelColors(model.LevelProfessional, "#F1FA8C"),
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})
	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.InfoText = r.NewStyle().Foreground(ColorInfo)
	t.Panel = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1)
	t.Chip = r.NewStyle().
		Foreground(ColorText).
		Background(ColorBgSubtle).
		Padding(0, 1)

	return t
}

// LevelColor returns the colors for a tier; unknown tiers use the entry tier.
func (t Theme) LevelColor(l model.Level) LevelColors {
	switch l.Rank() {
	case 2:
		return t.Industrial
	case 3:
		return t.Engineer
	case 4:
		return t.Professional
	default:
		return t.Craftsman
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
