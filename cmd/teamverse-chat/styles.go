package main

import "github.com/charmbracelet/lipgloss"

var (
	colorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	colorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	colorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	colorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	colorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	colorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	colorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Background(colorBlue).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorWhite).
			Background(colorSubtle).
			Padding(0, 1)

	errorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	onlineStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	offlineStyle = lipgloss.NewStyle().Foreground(colorRed)
	unreadStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	authorStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	selfStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	timeStyle    = lipgloss.NewStyle().Foreground(colorGray)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorGray)
)
