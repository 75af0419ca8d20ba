package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultAccent = "#A78BFA"

var (
	// Accent style for page titles, ids and highlights
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(defaultAccent))

	// Muted style for secondary info and hints
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().Bold(true)

	accentColor = defaultAccent
)

// ConfigureTheme sets the accent color from config. "none", "off" and
// "default" disable it; invalid values are ignored.
func ConfigureTheme(accent string) {
	switch strings.ToLower(strings.TrimSpace(accent)) {
	case "none", "off", "default":
		accentColor = ""
		Accent = lipgloss.NewStyle()
		return
	}
	color, ok := normalizeAccentColor(accent)
	if !ok {
		return
	}
	accentColor = color
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// AccentColor returns the configured accent, if any.
func AccentColor() (string, bool) {
	return accentColor, accentColor != ""
}

// normalizeAccentColor accepts ANSI codes 0-255 and #RGB / #RRGGBB.
func normalizeAccentColor(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 255 {
			return "", false
		}
		return strconv.Itoa(n), true
	}
	if !strings.HasPrefix(s, "#") {
		return "", false
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return "", false
	}
	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return "", false
	}
	return "#" + hex, true
}
