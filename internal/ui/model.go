package ui

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/FlowTrack/internal/logger"
	"github.com/yildizm/FlowTrack/internal/record"
	"github.com/yildizm/FlowTrack/internal/render"
	"github.com/yildizm/FlowTrack/internal/session"
	"github.com/yildizm/FlowTrack/internal/ui/components"
	"github.com/yildizm/FlowTrack/internal/video"
)

// mode is the modal state of the session screen
type mode int

const (
	modePlaying mode = iota
	modeSavePrompt
)

// Status severities, named after the glyphs they are shown with
const (
	levelInfo    = "info"
	levelWarning = "warning"
	levelError   = "error"
)

// Options configures a capture session
type Options struct {
	Source       video.Source
	State        session.State
	Persister    *record.Persister
	Logger       *logger.Logger
	Keymap       Keymap
	RecentPoints int
	SnapshotDir  string
}

// Model is the bubbletea model of a capture session. It owns the session
// state and the buffer of the run in progress.
type Model struct {
	src         video.Source
	state       session.State
	buf         session.Buffer
	persister   *record.Persister
	log         *logger.Logger
	keys        Keymap
	recent      int
	snapshotDir string
	styles      *Styles

	frame         *video.Frame
	width, height int

	// gen is the generation of the running frame scheduler
	gen int

	replayPoints []session.Point
	replayPoint  *session.Point
	replayGen    int
	replayIndex  int

	mode        mode
	showHelp    bool
	status      string
	statusLevel string
	err         error
	quitting    bool
}

// NewModel creates a session model
func NewModel(opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	recent := opts.RecentPoints
	if recent <= 0 {
		recent = 10
	}

	return &Model{
		src:         opts.Source,
		state:       opts.State,
		persister:   opts.Persister,
		log:         log,
		keys:        opts.Keymap,
		recent:      recent,
		snapshotDir: opts.SnapshotDir,
		styles:      GetStyles(),
		status:      "Click the video to capture points, ? for help",
		statusLevel: levelInfo,
	}
}

// Init starts the frame scheduler
func (m *Model) Init() tea.Cmd {
	gen := m.gen
	return func() tea.Msg {
		return tickMsg{gen: gen}
	}
}

// Err returns the error that ended the session, if any
func (m *Model) Err() error {
	return m.err
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tickMsg:
		return m.handleTick(msg)
	case replayStepMsg:
		return m.handleReplayStep(msg)
	}
	return m, nil
}

func (m *Model) delay() time.Duration {
	return time.Duration(m.state.FrameDelayMs) * time.Millisecond
}

// handleKeyPress routes a key to the prompt, the replay or the keymap
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeSavePrompt {
		switch msg.String() {
		case "y", "Y", "ctrl+c":
			return m.finish(true)
		case "n", "N":
			return m.finish(false)
		}
		return m, nil
	}

	if m.state.Replaying {
		// only the quit key is honoured, and it only ends the replay
		if k := msg.String(); k == "q" || k == "ctrl+c" {
			return m.stopReplay("Replay aborted")
		}
		return m, nil
	}

	in, ok := m.keys.Intent(msg)
	if m.showHelp {
		// the help panel covers the frame; only closing it is honoured
		if (ok && in.Kind == session.IntentHelp) || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}
	if !ok {
		return m, nil
	}
	return m.dispatch(in)
}

// handleMouse turns clicks and wheel events into intents
func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != modePlaying || m.showHelp || msg.Action != tea.MouseActionPress {
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		return m.dispatch(session.Intent{Kind: session.IntentZoomSlider, Slider: m.state.ZoomSlider() + 1})
	case tea.MouseButtonWheelDown:
		return m.dispatch(session.Intent{Kind: session.IntentZoomSlider, Slider: m.state.ZoomSlider() - 1})
	case tea.MouseButtonLeft:
		if x, y, ok := m.viewport().CellToPixel(msg.X, msg.Y); ok {
			return m.dispatch(session.Intent{Kind: session.IntentCapture, X: x, Y: y})
		}
		if value, ok := m.sliderValueAt(msg.X, msg.Y); ok {
			return m.dispatch(session.Intent{Kind: session.IntentZoomSlider, Slider: value})
		}
	}
	return m, nil
}

// dispatch applies one intent. Intents that end a run flush first; if the
// flush fails the intent is not applied and the buffer is kept.
func (m *Model) dispatch(in session.Intent) (tea.Model, tea.Cmd) {
	saved := ""
	if in.FlushesFirst() {
		path, err := m.flush()
		if err != nil {
			m.setStatus(levelError, fmt.Sprintf("Save failed, %s not applied: %v", in.Kind, err))
			return m, nil
		}
		if path != "" {
			saved = "Saved " + filepath.Base(path) + ", "
		}
	}

	switch in.Kind {
	case session.IntentQuit:
		return m.quit()
	case session.IntentCapture:
		m.capture(in.X, in.Y)
		return m, nil
	case session.IntentSeek:
		return m.seek(in.Delta)
	case session.IntentReplay:
		return m.startReplay()
	case session.IntentSnapshot:
		m.snapshot()
		return m, nil
	case session.IntentHelp:
		m.showHelp = !m.showHelp
		return m, nil
	}

	before := m.state
	m.state = m.state.Apply(in)
	m.setStatus(levelInfo, saved+describe(in, m.state))

	if m.state.Section() != before.Section() || m.state.FlowLevel() != before.FlowLevel() || m.state.Run != before.Run {
		m.log.InfoWithFields("run changed", m.runFields())
	}

	if m.state.FrameDelayMs != before.FrameDelayMs {
		// restart the scheduler; ticks of the old generation are dropped
		m.gen++
		return m, tickAfter(m.delay(), m.gen)
	}
	return m, nil
}

// handleTick advances playback by one frame and schedules the next tick
func (m *Model) handleTick(msg tickMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen || m.mode != modePlaying || m.quitting {
		return m, nil
	}

	if !m.state.Paused && !m.state.Replaying {
		if !m.advance() {
			return m.stopped()
		}
	}
	return m, tickAfter(m.delay(), m.gen)
}

// advance reads the next frame. It returns false when playback cannot go
// on; m.mode or m.err tell why.
func (m *Model) advance() bool {
	frame, err := m.src.ReadFrame()
	switch {
	case err == nil:
		m.frame = frame
		return true
	case errors.Is(err, video.ErrEndOfStream):
		m.log.InfoWithFields("end of video", []logger.Field{logger.Count(m.buf.Len())})
		m.mode = modeSavePrompt
		return false
	default:
		m.log.Error("failed to read frame: %v", err)
		m.err = fmt.Errorf("failed to read frame: %w", err)
		return false
	}
}

// stopped ends the session after advance failed. The end of the video only
// asks before exiting when there is something to save.
func (m *Model) stopped() (tea.Model, tea.Cmd) {
	if m.err != nil || m.buf.Len() == 0 {
		return m.quit()
	}
	return m, nil
}

func (m *Model) seek(delta float64) (tea.Model, tea.Cmd) {
	pos := m.src.SeekRelative(delta)
	m.log.DebugWithFields("seek", []logger.Field{logger.F("delta", delta), logger.Seconds(pos)})

	if !m.advance() {
		return m.stopped()
	}
	m.setStatus(levelInfo, fmt.Sprintf("Seek %+gs to %s", delta, components.FormatClock(pos)))
	return m, nil
}

// capture appends a point at source pixel (x, y) tagged with the time of
// the displayed frame
func (m *Model) capture(x, y int) {
	if m.frame == nil {
		return
	}

	p := m.state.PointAt(x, y, m.frame.Timestamp)
	if !m.buf.Append(m.state, p) {
		m.setStatus(levelWarning, "Capture ignored while paused or replaying")
		return
	}

	m.log.DebugWithFields("point captured", []logger.Field{
		logger.F("x", x), logger.F("y", y), logger.Seconds(p.Timestamp),
	})
	m.setStatus(levelInfo, fmt.Sprintf("Captured (%d, %d) at %.2fs, %d in %s", x, y, p.Timestamp, m.buf.Len(), p.Run))
}

// flush persists the buffer of the current run
func (m *Model) flush() (string, error) {
	count := m.buf.Len()
	path, err := m.persister.Flush(m.state, &m.buf)
	if err != nil {
		m.log.WarnWithFields("failed to save run", append(m.runFields(), logger.Count(count), logger.Error(err)))
		return "", err
	}
	if path != "" {
		m.log.InfoWithFields("run saved", append(m.runFields(), logger.Count(count), logger.File(path)))
	}
	return path, nil
}

// finish answers the end-of-video prompt
func (m *Model) finish(save bool) (tea.Model, tea.Cmd) {
	if save {
		if _, err := m.flush(); err != nil {
			m.setStatus(levelError, fmt.Sprintf("Save failed: %v", err))
			return m, nil
		}
		return m.quit()
	}

	m.log.WarnWithFields("discarding unsaved points", append(m.runFields(), logger.Count(m.buf.Len())))
	m.buf.Clear()
	return m.quit()
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	if err := m.src.Close(); err != nil {
		m.log.Warn("failed to close video: %v", err)
	}
	m.quitting = true
	return m, tea.Quit
}

// startReplay steps through a copy of the buffer, one point per frame delay
func (m *Model) startReplay() (tea.Model, tea.Cmd) {
	points := m.buf.Points()
	if len(points) == 0 {
		m.setStatus(levelWarning, "Nothing to replay")
		return m, nil
	}

	m.replayPoints = points
	m.replayGen++
	m.replayIndex = 0
	m.state = m.state.WithReplaying(true)
	m.log.InfoWithFields("replay started", append(m.runFields(), logger.Count(len(points))))
	return m, replayNow(m.replayGen)
}

// handleReplayStep seeks to one recorded point and shows it. The video is
// left at the last replayed timestamp afterwards.
func (m *Model) handleReplayStep(msg replayStepMsg) (tea.Model, tea.Cmd) {
	if !m.state.Replaying || msg.gen != m.replayGen {
		return m, nil
	}
	if msg.index >= len(m.replayPoints) {
		return m.stopReplay("Replay finished")
	}

	p := m.replayPoints[msg.index]
	m.src.SeekTo(p.Timestamp)
	frame, err := m.src.ReadFrame()
	if err != nil {
		m.log.WarnWithFields("replay frame unavailable", []logger.Field{logger.Seconds(p.Timestamp), logger.Error(err)})
	} else {
		m.frame = frame
	}

	m.replayPoint = &p
	m.replayIndex = msg.index + 1
	m.setStatus(levelInfo, fmt.Sprintf("Replaying (%d, %d) at %.2fs", p.X, p.Y, p.Timestamp))
	return m, replayAfter(m.delay(), msg.gen, msg.index+1)
}

func (m *Model) stopReplay(text string) (tea.Model, tea.Cmd) {
	m.state = m.state.WithReplaying(false)
	m.replayPoint = nil
	m.replayPoints = nil
	m.log.InfoWithFields("replay stopped", []logger.Field{logger.F("shown", m.replayIndex), logger.Seconds(m.src.Position())})
	m.setStatus(levelInfo, text)
	return m, nil
}

// snapshot exports the current frame with its overlays as a PNG
func (m *Model) snapshot() {
	if m.frame == nil {
		m.setStatus(levelWarning, "No frame to snapshot yet")
		return
	}

	srcW, srcH := m.src.Size()
	bounds := m.frame.Image.Bounds()
	img := render.Compose(m.frame, render.Overlay{
		Width:        int(math.Round(float64(bounds.Dx()) * m.state.Zoom)),
		Height:       int(math.Round(float64(bounds.Dy()) * m.state.Zoom)),
		SourceWidth:  srcW,
		SourceHeight: srcH,
		Points:       m.buf.Last(m.recent),
		Replay:       m.replayPoint,
		MarkerRadius: 2,
		Lines:        m.overlayLines(),
	})

	path, err := render.SavePNG(m.snapshotDir, m.frame.Timestamp, img)
	if err != nil {
		m.log.Warn("snapshot failed: %v", err)
		m.setStatus(levelError, fmt.Sprintf("Snapshot failed: %v", err))
		return
	}
	m.log.InfoWithFields("snapshot saved", []logger.Field{logger.File(path)})
	m.setStatus(levelInfo, "Snapshot saved to "+filepath.Base(path))
}

// overlayLines are the text lines burnt into snapshots
func (m *Model) overlayLines() []string {
	return []string{
		fmt.Sprintf("t=%.2fs", m.frame.Timestamp),
		fmt.Sprintf("%s  flow %s  %s", m.state.Section(), m.state.FlowLabel(), m.state.RunLabel()),
		fmt.Sprintf("zoom %.1fx  delay %d ms", m.state.Zoom, m.state.FrameDelayMs),
		m.status,
	}
}

func (m *Model) runFields() []logger.Field {
	return []logger.Field{
		logger.F("section", m.state.Section()),
		logger.F("flow_level", m.state.FlowLabel()),
		logger.F("run", m.state.RunLabel()),
	}
}

func (m *Model) setStatus(level, text string) {
	m.statusLevel = level
	m.status = text
}

// describe is the status line shown after a state-only intent
func describe(in session.Intent, s session.State) string {
	switch in.Kind {
	case session.IntentZoomIn, session.IntentZoomOut, session.IntentZoomSlider:
		return fmt.Sprintf("Zoom %.1fx", s.Zoom)
	case session.IntentTogglePause:
		if s.Paused {
			return "Paused"
		}
		return "Resumed"
	case session.IntentSlower, session.IntentFaster:
		return fmt.Sprintf("Frame delay %d ms", s.FrameDelayMs)
	case session.IntentNewRun:
		return "Started " + s.RunLabel()
	case session.IntentRunUp, session.IntentRunDown:
		return "Run set to " + s.RunLabel()
	case session.IntentFlowNext, session.IntentFlowPrev:
		return fmt.Sprintf("Flow level %s, %s", s.FlowLabel(), s.RunLabel())
	case session.IntentSectionNext, session.IntentSectionPrev:
		return fmt.Sprintf("Section %s, %s", s.Section(), s.RunLabel())
	}
	return in.Kind.String()
}
