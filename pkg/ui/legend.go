package ui

import (
	"strings"

	"github.com/vanderheijden86/techtree/pkg/model"
)

// RenderLegend lists the tier colors on one line.
func RenderLegend(t Theme) string {
	parts := make([]string, 0, len(model.Levels))
	for _, l := range model.Levels {
		swatch := t.Renderer.NewStyle().Foreground(t.LevelColor(l).Border).Render("■")
		parts = append(parts, swatch+" "+string(l))
	}
	return strings.Join(parts, "  ")
}
