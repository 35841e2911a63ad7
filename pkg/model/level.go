package model

import "strings"

// Level is a certification rank tier as reported by the backend.
type Level string

// Canonical tiers, lowest to highest.
const (
	LevelCraftsman    Level = "기능사"  // entry
	LevelIndustrial   Level = "산업기사" // associate
	LevelEngineer     Level = "기사"   // professional
	LevelProfessional Level = "기술사"  // master
)

// Levels lists the tiers in ascending rank order.
var Levels = []Level{LevelCraftsman, LevelIndustrial, LevelEngineer, LevelProfessional}

// ParseLevel maps a backend or English tier name to a canonical Level.
// Unknown values are returned unchanged.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "entry", string(LevelCraftsman):
		return LevelCraftsman
	case "associate", string(LevelIndustrial):
		return LevelIndustrial
	case "professional", string(LevelEngineer):
		return LevelEngineer
	case "master", string(LevelProfessional):
		return LevelProfessional
	}
	return Level(strings.TrimSpace(s))
}

// Rank returns 1..4 for known tiers and 0 otherwise.
func (l Level) Rank() int {
	switch ParseLevel(string(l)) {
	case LevelCraftsman:
		return 1
	case LevelIndustrial:
		return 2
	case LevelEngineer:
		return 3
	case LevelProfessional:
		return 4
	}
	return 0
}

// Tier returns the English tier name, or "" for unknown levels.
func (l Level) Tier() string {
	switch l.Rank() {
	case 1:
		return "entry"
	case 2:
		return "associate"
	case 3:
		return "professional"
	case 4:
		return "master"
	}
	return ""
}

// Known reports whether the level is one of the four canonical tiers.
func (l Level) Known() bool {
	return l.Rank() > 0
}

// Palette is the background/border color pair for a tier.
type Palette struct {
	Background string
	Border     string
}

var palettes = map[Level]Palette{
	LevelCraftsman:    {Background: "#f3e8ff", Border: "#a855f7"},
	LevelIndustrial:   {Background: "#dcfce7", Border: "#22c55e"},
	LevelEngineer:     {Background: "#dbeafe", Border: "#3b82f6"},
	LevelProfessional: {Background: "#fef3c7", Border: "#f59e0b"},
}

// Palette returns the tier colors. Unknown levels use the entry palette.
func (l Level) Palette() Palette {
	if p, ok := palettes[ParseLevel(string(l))]; ok {
		return p
	}
	return palettes[LevelCraftsman]
}

// Style returns the node style hints for the tier.
func (l Level) Style() *NodeStyle {
	p := l.Palette()
	return &NodeStyle{Background: p.Background, Border: p.Border}
}
