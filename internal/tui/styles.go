package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/born-ml/vani/internal/render"
)

type theme struct {
	title       lipgloss.Style
	info        lipgloss.Style
	tabActive   lipgloss.Style
	tabInactive lipgloss.Style
	toggleOn    lipgloss.Style
	toggleOff   lipgloss.Style
	panel       lipgloss.Style
	stats       lipgloss.Style
	banner      lipgloss.Style
	verifyOK    lipgloss.Style
	verifyBad   lipgloss.Style
	muted       lipgloss.Style
	button      lipgloss.Style
	buttonDone  lipgloss.Style
	boxes       [render.PaletteSize]lipgloss.Style
	selected    lipgloss.Style
}

func newTheme() theme {
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#8b8fa8")
	accent := lipgloss.Color(render.Palette[0])
	green := lipgloss.Color(render.Palette[2])
	red := lipgloss.Color(render.Palette[5])

	t := theme{
		title: lipgloss.NewStyle().Bold(true).Foreground(accent),
		info:  lipgloss.NewStyle().Foreground(muted),
		tabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(text).
			Background(accent).
			Padding(0, 1),
		tabInactive: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1),
		toggleOn:  lipgloss.NewStyle().Bold(true).Foreground(accent).Underline(true),
		toggleOff: lipgloss.NewStyle().Foreground(muted),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		stats: lipgloss.NewStyle().Foreground(text),
		banner: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1a1a1a")).
			Background(red).
			Padding(0, 1),
		verifyOK:   lipgloss.NewStyle().Foreground(green),
		verifyBad:  lipgloss.NewStyle().Foreground(red),
		muted:      lipgloss.NewStyle().Foreground(muted),
		button:     lipgloss.NewStyle().Foreground(text),
		buttonDone: lipgloss.NewStyle().Bold(true).Foreground(green),
		selected:   lipgloss.NewStyle().Underline(true).Bold(true),
	}
	for i, c := range render.Palette {
		t.boxes[i] = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1a1a1a")).
			Background(lipgloss.Color(c)).
			Padding(0, 1)
	}
	return t
}
