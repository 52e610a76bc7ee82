package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour set of the session panel
type Theme struct {
	Name string

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Success   lipgloss.AdaptiveColor
	Warning   lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor

	// Capture and Replay tint the point list in the panel
	Capture lipgloss.AdaptiveColor
	Replay  lipgloss.AdaptiveColor
}

func adaptive(pair [2]string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: pair[0], Dark: pair[1]}
}

// buildTheme creates a theme from light/dark pairs in field order
func buildTheme(name string, primary, secondary, success, warning, errorColor, border, muted, highlight, capture, replay [2]string) Theme {
	return Theme{
		Name:      name,
		Primary:   adaptive(primary),
		Secondary: adaptive(secondary),
		Success:   adaptive(success),
		Warning:   adaptive(warning),
		Error:     adaptive(errorColor),
		Border:    adaptive(border),
		Muted:     adaptive(muted),
		Highlight: adaptive(highlight),
		Capture:   adaptive(capture),
		Replay:    adaptive(replay),
	}
}

// Available themes
var (
	DefaultTheme = buildTheme("default",
		[2]string{"#1E40AF", "#3B82F6"}, [2]string{"#6B7280", "#9CA3AF"}, [2]string{"#059669", "#10B981"},
		[2]string{"#D97706", "#F59E0B"}, [2]string{"#DC2626", "#EF4444"}, [2]string{"#D1D5DB", "#374151"},
		[2]string{"#6B7280", "#9CA3AF"}, [2]string{"#DBEAFE", "#1E3A8A"}, [2]string{"#15803D", "#22C55E"},
		[2]string{"#B91C1C", "#F87171"})

	HighContrastTheme = buildTheme("high-contrast",
		[2]string{"#000000", "#FFFFFF"}, [2]string{"#666666", "#BBBBBB"}, [2]string{"#006600", "#00FF00"},
		[2]string{"#CC6600", "#FFAA00"}, [2]string{"#CC0000", "#FF4444"}, [2]string{"#000000", "#FFFFFF"},
		[2]string{"#666666", "#BBBBBB"}, [2]string{"#FFFF00", "#444444"}, [2]string{"#006600", "#00FF00"},
		[2]string{"#CC0000", "#FF4444"})

	MinimalTheme = buildTheme("minimal",
		[2]string{"#2D3748", "#E2E8F0"}, [2]string{"#718096", "#A0AEC0"}, [2]string{"#2F855A", "#68D391"},
		[2]string{"#C05621", "#F6AD55"}, [2]string{"#C53030", "#FC8181"}, [2]string{"#E2E8F0", "#2D3748"},
		[2]string{"#A0AEC0", "#718096"}, [2]string{"#F7FAFC", "#2D3748"}, [2]string{"#2F855A", "#68D391"},
		[2]string{"#C53030", "#FC8181"})
)

var currentTheme = DefaultTheme

// GetTheme returns the current active theme
func GetTheme() Theme {
	return currentTheme
}

// SetThemeByName sets the theme by name
func SetThemeByName(name string) bool {
	switch name {
	case "", "default":
		currentTheme = DefaultTheme
	case "high-contrast":
		currentTheme = HighContrastTheme
	case "minimal":
		currentTheme = MinimalTheme
	default:
		return false
	}
	return true
}

// IsColorDisabled checks if colors should be disabled
func IsColorDisabled() bool {
	return os.Getenv("NO_COLOR") != ""
}

// Styles are the lipgloss styles the session view renders with
type Styles struct {
	Theme Theme

	Title     lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Capture   lipgloss.Style
	Replay    lipgloss.Style
	Key       lipgloss.Style
	Box       lipgloss.Style
	Highlight lipgloss.Style
}

// GetStyles builds styles from the current theme
func GetStyles() *Styles {
	theme := GetTheme()

	return &Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(theme.Secondary),

		Value: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error).
			Bold(true),

		Capture: lipgloss.NewStyle().
			Foreground(theme.Capture),

		Replay: lipgloss.NewStyle().
			Foreground(theme.Replay).
			Bold(true),

		Key: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Width(10),

		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(1, 2),

		Highlight: lipgloss.NewStyle().
			Background(theme.Highlight).
			Foreground(theme.Primary),
	}
}

// render applies style unless NO_COLOR is set
func (s *Styles) render(style lipgloss.Style, text string) string {
	if IsColorDisabled() {
		return text
	}
	return style.Render(text)
}
