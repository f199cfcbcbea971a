package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme names the hex colors a [Palette] is built from.
type Theme struct {
	Accent string
	OK     string
	Error  string
	Warn   string
	Muted  string
	Tiers  map[string]string // resolver strategy → color
}

// DefaultTheme follows the catalog's brand green.
var DefaultTheme = Theme{
	Accent: "#1DB954",
	OK:     "#04B575",
	Error:  "#FF0000",
	Warn:   "#FFA500",
	Muted:  "#626262",
	Tiers: map[string]string{
		"embedded":   "#04B575",
		"detail":     "#04B575",
		"page-regex": "#FFA500",
		"page-dom":   "#FFA500",
		"finder":     "#FF5F87",
	},
}

var styles = NewPalette(DefaultTheme)

// Palette holds the rendered [lipgloss.Style] set for a [Theme].
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style
	tiers map[string]lipgloss.Style
}

func NewPalette(t Theme) *Palette {
	p := &Palette{
		title: fg(t.Accent).Bold(true).MarginBottom(1),
		ok:    fg(t.OK).Bold(true),
		err:   fg(t.Error).Bold(true),
		warn:  fg(t.Warn),
		help:  fg(t.Muted).Italic(true),
		label: fg(t.Muted).Width(10),
		tiers: make(map[string]lipgloss.Style, len(t.Tiers)),
	}
	for name, color := range t.Tiers {
		p.tiers[name] = fg(color)
	}
	return p
}

// Tier renders a strategy name in its color; unknown strategies are muted.
func (p *Palette) Tier(name string) string {
	if style, ok := p.tiers[name]; ok {
		return style.Render(name)
	}
	return p.help.Render(name)
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
