package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yildizm/go-termfmt"

	"github.com/yildizm/FlowTrack/internal/emoji"
	"github.com/yildizm/FlowTrack/internal/render"
	"github.com/yildizm/FlowTrack/internal/session"
	"github.com/yildizm/FlowTrack/internal/ui/components"
)

const (
	// panelHeight is the number of status lines below the frame
	panelHeight = 6

	// sliderLine is the panel line holding the zoom slider
	sliderLine  = 2
	sliderLabel = "Zoom "

	progressWidth = 30

	tailLabel = "Last: "
	tailSep   = "  "
)

var zoomSlider = components.Slider{Min: 0, Max: session.MaxZoomSlider}

// frameRows is the height of the frame area; the panel starts below it
func (m *Model) frameRows() int {
	return max(0, m.height-panelHeight)
}

// viewport places the current frame in the frame area at the current zoom
func (m *Model) viewport() render.Viewport {
	srcW, srcH := m.src.Size()
	return render.Fit(srcW, srcH, m.width, m.frameRows(), m.state.Zoom)
}

// sliderValueAt maps a click on the zoom slider to a slider value
func (m *Model) sliderValueAt(x, y int) (int, bool) {
	if y != m.frameRows()+sliderLine {
		return 0, false
	}
	return zoomSlider.ValueAt(x - len(sliderLabel))
}

func (m *Model) termOptions() *termfmt.TerminalOptions {
	opts := termfmt.DefaultOptions()
	opts.Emoji = !emoji.IsEmojiDisabled()
	opts.Color = !IsColorDisabled()
	return opts
}

// View renders the session screen
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading video..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	if m.mode == modeSavePrompt {
		return m.renderPrompt()
	}

	return m.renderFrame() + "\n" + m.renderPanel()
}

// renderFrame draws the composed frame padded to the frame area height so
// the panel, and the slider in it, stay at fixed rows.
func (m *Model) renderFrame() string {
	rows := m.frameRows()
	lines := make([]string, 0, rows)

	if m.frame != nil && rows > 0 {
		vp := m.viewport()
		srcW, srcH := m.src.Size()
		img := render.Compose(m.frame, render.Overlay{
			Width:        vp.Width,
			Height:       vp.Height,
			SourceWidth:  srcW,
			SourceHeight: srcH,
			Points:       m.buf.Last(m.recent),
			Replay:       m.replayPoint,
		})
		if out := render.Terminal(img, vp); out != "" {
			lines = append(lines, strings.Split(out, "\n")...)
		}
	}

	for len(lines) < rows {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderPanel() string {
	st := m.styles

	// line 0: where captures go
	runLine := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		emoji.GetEmoji("section"), st.render(st.Value, m.state.Section()),
		emoji.GetEmoji("flow"), st.render(st.Value, m.state.FlowLabel()),
		emoji.GetEmoji("run"), st.render(st.Value, m.state.RunLabel()),
		emoji.GetEmoji("capture"), st.render(st.Capture, fmt.Sprintf("%d points", m.buf.Len())))

	// line 1: playback
	position := m.src.Position()
	if m.frame != nil {
		position = m.frame.Timestamp
	}
	bar := components.ProgressBar{Width: progressWidth, Position: position, Duration: m.src.Duration()}
	playLine := bar.Render() + "  " + m.playState()

	// line 2: zoom slider, at a fixed column for mouse hits
	slider := zoomSlider
	slider.Value = m.state.ZoomSlider()
	zoomLine := sliderLabel + slider.Render() +
		fmt.Sprintf(" %.1fx   %s %d ms", m.state.Zoom, emoji.GetEmoji("speed"), m.state.FrameDelayMs)

	// line 3: most recent captures
	tailLine := st.render(st.Muted, tailLabel+"none")
	if parts := m.tailParts(m.width - len(tailLabel)); len(parts) > 0 {
		tailLine = st.render(st.Muted, tailLabel) + st.render(st.Capture, strings.Join(parts, tailSep))
	}

	// line 4: status
	statusLine := termfmt.GetEmoji(m.statusLevel, m.termOptions()) + " " + m.renderStatus()

	// line 5: hints
	hintLine := st.render(st.Muted, "? help  click capture  n next run  v replay  q save and quit")

	return strings.Join([]string{runLine, playLine, zoomLine, tailLine, statusLine, hintLine}, "\n")
}

// tailParts labels the recent points shown on the frame, oldest dropped
// first until the joined labels fit in width. The newest is always kept.
func (m *Model) tailParts(width int) []string {
	tail := m.buf.Last(m.recent)
	parts := make([]string, 0, len(tail))
	for _, p := range tail {
		parts = append(parts, fmt.Sprintf("(%d,%d)@%.2fs", p.X, p.Y, p.Timestamp))
	}
	for len(parts) > 1 && len(strings.Join(parts, tailSep)) > width {
		parts = parts[1:]
	}
	return parts
}

func (m *Model) renderStatus() string {
	st := m.styles
	switch m.statusLevel {
	case levelError:
		return st.render(st.Error, m.status)
	case levelWarning:
		return st.render(st.Warning, m.status)
	default:
		return m.status
	}
}

// playState describes whether frames are advancing
func (m *Model) playState() string {
	st := m.styles
	switch {
	case m.state.Replaying:
		total := len(m.replayPoints)
		fraction := 0.0
		if total > 0 {
			fraction = float64(m.replayIndex) / float64(total)
		}
		return st.render(st.Replay, fmt.Sprintf("%s replay %d/%d ", emoji.GetEmoji("replay"), m.replayIndex, total)) +
			termfmt.CreateConfidenceBar(fraction, m.termOptions())
	case m.state.Paused:
		return st.render(st.Warning, emoji.Label("pause", "paused"))
	default:
		return st.render(st.Success, emoji.Label("play", "playing"))
	}
}

func (m *Model) renderHelp() string {
	st := m.styles
	title := st.render(st.Title, emoji.Label("help", "FlowTrack keys"))

	lines := make([]string, 0, len(helpEntries))
	for _, entry := range helpEntries {
		lines = append(lines, st.render(st.Key, entry.keys)+" "+entry.desc)
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		"",
		lipgloss.JoinVertical(lipgloss.Left, lines...),
		"",
		st.render(st.Muted, "Press ? to return"),
	)

	box := st.Box.Width(min(m.width-4, 72))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box.Render(content))
}

func (m *Model) renderPrompt() string {
	st := m.styles
	content := lipgloss.JoinVertical(
		lipgloss.Center,
		st.render(st.Title, emoji.Label("video", "Video ended. Save current data? (y/n)")),
		"",
		st.render(st.Muted, fmt.Sprintf("%d unsaved points in %s / %s / %s",
			m.buf.Len(), m.state.Section(), m.state.FlowLabel(), m.state.RunLabel())),
		m.renderStatus(),
	)

	box := st.Box.Width(min(m.width-4, 60))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box.Render(content))
}
