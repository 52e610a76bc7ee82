package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar shows the playback position within the video
type ProgressBar struct {
	Width    int
	Position float64
	Duration float64
}

// Render renders the bar followed by "pos / duration"
func (p ProgressBar) Render() string {
	// Define styles locally to avoid import cycle
	progressStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	fraction := 0.0
	if p.Duration > 0 {
		fraction = p.Position / p.Duration
	}
	fraction = min(max(fraction, 0), 1)

	filledWidth := int(float64(p.Width) * fraction)
	bar := progressStyle.Render(strings.Repeat("█", filledWidth)) +
		mutedStyle.Render(strings.Repeat("░", p.Width-filledWidth))

	return fmt.Sprintf("[%s] %s / %s", bar, FormatClock(p.Position), FormatClock(p.Duration))
}

// FormatClock formats seconds as m:ss.cc
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := int(seconds) / 60
	return fmt.Sprintf("%d:%05.2f", minutes, seconds-float64(minutes*60))
}

// Slider is an integer control drawn with one cell per value, so a mouse
// column maps directly to a value.
type Slider struct {
	Min, Max int
	Value    int
}

// Width is the number of cells the slider occupies
func (s Slider) Width() int {
	return s.Max - s.Min + 1
}

// Render draws the track with a knob at Value
func (s Slider) Render() string {
	knobStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")).Bold(true)
	trackStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

	knob := min(max(s.Value, s.Min), s.Max) - s.Min
	return trackStyle.Render(strings.Repeat("─", knob)) +
		knobStyle.Render("●") +
		trackStyle.Render(strings.Repeat("─", s.Width()-knob-1))
}

// ValueAt returns the value under a column relative to the slider start
func (s Slider) ValueAt(col int) (int, bool) {
	if col < 0 || col >= s.Width() {
		return 0, false
	}
	return s.Min + col, true
}
