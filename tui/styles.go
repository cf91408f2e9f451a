package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	colorGreen  = lipgloss.Color("#4ade80")
	colorYellow = lipgloss.Color("#facc15")
	colorRed    = lipgloss.Color("#f87171")
	colorCyan   = lipgloss.Color("#22d3ee")
	colorWhite  = lipgloss.Color("#e5e7eb")
	colorGray   = lipgloss.Color("#6b7280")
	colorDim    = lipgloss.Color("#374151")
)

func divider(w int) string {
	return lipgloss.NewStyle().Foreground(colorDim).Render(strings.Repeat("─", w))
}

func dimText(s string) string {
	return lipgloss.NewStyle().Foreground(colorGray).Render(s)
}

func truncate(s string, maxWidth int) string {
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	if len(runes) > maxWidth-1 {
		return string(runes[:maxWidth-1]) + "…"
	}
	return s
}
