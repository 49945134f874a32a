package tui

import (
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
)

// LECTERN ASCII art banner.
var lecternArt = []string{
	"  ██╗     ███████╗ ██████╗████████╗███████╗██████╗ ███╗   ██╗",
	"  ██║     ██╔════╝██╔════╝╚══██╔══╝██╔════╝██╔══██╗████╗  ██║",
	"  ██║     █████╗  ██║        ██║   █████╗  ██████╔╝██╔██╗ ██║",
	"  ██║     ██╔══╝  ██║        ██║   ██╔══╝  ██╔══██╗██║╚██╗██║",
	"  ███████╗███████╗╚██████╗   ██║   ███████╗██║  ██║██║ ╚████║",
	"  ╚══════╝╚══════╝ ╚═════╝   ╚═╝   ╚══════╝╚═╝  ╚═╝╚═╝  ╚═══╝",
}

// Styles contains all lipgloss styles for the TUI.
type Styles struct {
	Banner    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Stats     lipgloss.Style
	Sources   lipgloss.Style
	Error     lipgloss.Style
	Prompt    lipgloss.Style
	Separator lipgloss.Style
	StatusBar lipgloss.Style
}

// StylesFor returns the style configuration for a theme.
func StylesFor(theme Theme) Styles {
	if theme == ThemeLight {
		return lightStyles()
	}
	return darkStyles()
}

func darkStyles() Styles {
	return Styles{
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		System:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Stats:     lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Sources:   lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("245")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}

func lightStyles() Styles {
	return Styles{
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("55")),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("23")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("125")),
		System:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244")),
		Stats:     lipgloss.NewStyle().Foreground(lipgloss.Color("235")),
		Sources:   lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("242")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("23")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		StatusBar: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// RenderBanner returns the LECTERN ASCII art banner as a styled string.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for _, line := range lecternArt {
		_, _ = b.WriteString(s.Banner.Render(line))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// RenderCourseStats returns the course count line shown under the banner.
func (s Styles) RenderCourseStats(count int) string {
	return s.Stats.Render("  Course materials loaded: " + strconv.Itoa(count))
}
