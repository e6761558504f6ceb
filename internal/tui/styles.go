package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds every style the views use for one theme.
type Styles struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color

	Header     lipgloss.Style
	Footer     lipgloss.Style
	Title      lipgloss.Style
	Selected   lipgloss.Style
	Unselected lipgloss.Style
	Prompt     lipgloss.Style
	Stars      lipgloss.Style
	Badge      lipgloss.Style

	MutedText   lipgloss.Style
	PrimaryText lipgloss.Style
	SuccessText lipgloss.Style
	ErrorText   lipgloss.Style
	WarningText lipgloss.Style

	Container lipgloss.Style
}

type palette struct {
	primary, secondary, success, warning, errorColor, muted, background, foreground lipgloss.Color
}

// Tokyo Night and its Day variant.
var (
	darkPalette = palette{
		primary:    "#7aa2f7",
		secondary:  "#bb9af7",
		success:    "#9ece6a",
		warning:    "#e0af68",
		errorColor: "#f7768e",
		muted:      "#565f89",
		background: "#1a1b26",
		foreground: "#c0caf5",
	}
	lightPalette = palette{
		primary:    "#2e7de9",
		secondary:  "#9854f1",
		success:    "#587539",
		warning:    "#8c6c3e",
		errorColor: "#f52a65",
		muted:      "#848cb5",
		background: "#e1e2e7",
		foreground: "#3760bf",
	}
)

func NewStyles(dark bool) *Styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}

	return &Styles{
		Primary: p.primary,
		Muted:   p.muted,

		Header: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(p.background).
			Bold(true).
			Padding(0, 1).
			MarginBottom(1),

		Footer: lipgloss.NewStyle().
			Foreground(p.muted).
			MarginTop(1),

		Title: lipgloss.NewStyle().
			Foreground(p.primary).
			Bold(true),

		Selected: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(p.background).
			Bold(true),

		Unselected: lipgloss.NewStyle().
			Foreground(p.foreground),

		Prompt: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.secondary).
			Padding(0, 2),

		Stars: lipgloss.NewStyle().
			Foreground(p.warning),

		Badge: lipgloss.NewStyle().
			Foreground(p.secondary),

		MutedText:   lipgloss.NewStyle().Foreground(p.muted),
		PrimaryText: lipgloss.NewStyle().Foreground(p.primary),
		SuccessText: lipgloss.NewStyle().Foreground(p.success),
		ErrorText:   lipgloss.NewStyle().Foreground(p.errorColor),
		WarningText: lipgloss.NewStyle().Foreground(p.warning),

		Container: lipgloss.NewStyle().
			Padding(0, 1),
	}
}
