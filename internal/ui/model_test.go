package ui

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/FlowTrack/internal/record"
	"github.com/yildizm/FlowTrack/internal/session"
	"github.com/yildizm/FlowTrack/internal/video"
)

// fakeSource plays a video of blank frames
type fakeSource struct {
	w, h     int
	fps      float64
	duration float64
	pos      float64
	reads    int
	seeks    []float64
	closed   bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{w: 64, h: 32, fps: 10, duration: 10}
}

func (f *fakeSource) ReadFrame() (*video.Frame, error) {
	if f.pos >= f.duration {
		return nil, video.ErrEndOfStream
	}
	frame := &video.Frame{Image: image.NewRGBA(image.Rect(0, 0, f.w, f.h)), Timestamp: f.pos}
	f.pos += 1 / f.fps
	f.reads++
	return frame, nil
}

func (f *fakeSource) Position() float64 { return f.pos }
func (f *fakeSource) Duration() float64 { return f.duration }

func (f *fakeSource) SeekTo(t float64) float64 {
	f.pos = video.Clamp(t, f.duration)
	f.seeks = append(f.seeks, f.pos)
	return f.pos
}

func (f *fakeSource) SeekRelative(delta float64) float64 {
	return f.SeekTo(f.pos + delta)
}

func (f *fakeSource) Size() (int, int) { return f.w, f.h }

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

const testFrameRows = 16

func newTestModel(t *testing.T) (*Model, *fakeSource, string) {
	t.Helper()

	state, err := session.NewState(session.Catalog{
		Sections:   []string{"Experiment_I", "Experiment_II", "Experiment_III"},
		FlowLevels: []float64{15, 20, 25},
	}, 1, 30)
	if err != nil {
		t.Fatalf("NewState failed: %v", err)
	}

	dir := t.TempDir()
	src := newFakeSource()
	m := NewModel(Options{
		Source: src,
		State:  state,
		Persister: &record.Persister{
			Dir: filepath.Join(dir, "output_data"),
			Now: func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local) },
		},
		Keymap:       DefaultKeymap(),
		RecentPoints: 10,
		SnapshotDir:  filepath.Join(dir, "snapshots"),
	})

	// a 64x32 source fills a 64x16 cell frame area one pixel per half cell
	m.Update(tea.WindowSizeMsg{Width: 64, Height: testFrameRows + panelHeight})
	m.Update(tickMsg{gen: m.gen})
	if m.frame == nil {
		t.Fatal("Expected the first tick to show a frame")
	}
	return m, src, filepath.Join(dir, "output_data")
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func click(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}
}

func recordFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestClickCapturesSourcePixel(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Update(click(10, 5))

	points := m.buf.Points()
	if len(points) != 1 {
		t.Fatalf("Expected 1 point, got %d", len(points))
	}
	p := points[0]
	if p.X != 10 || p.Y != 10 || p.Timestamp != 0 {
		t.Errorf("Unexpected point %+v", p)
	}
	if p.Section != "Experiment_I" || p.FlowLevel != 15 || p.Run != "Run_1" {
		t.Errorf("Unexpected tags %+v", p)
	}
}

func TestClickOutsideFrameIsIgnored(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Update(click(10, testFrameRows+4))
	if m.buf.Len() != 0 {
		t.Errorf("Expected no capture from a click on the panel, got %d", m.buf.Len())
	}
}

func TestCaptureRefusedWhilePaused(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Update(key("p"))
	if !m.state.Paused {
		t.Fatal("Expected session to be paused")
	}
	m.Update(click(3, 3))

	if m.buf.Len() != 0 {
		t.Errorf("Expected capture to be refused while paused, got %d points", m.buf.Len())
	}
	if m.statusLevel != levelWarning {
		t.Errorf("Expected a warning status, got %q", m.statusLevel)
	}
}

func TestPausedTickDoesNotAdvance(t *testing.T) {
	m, src, _ := newTestModel(t)

	m.Update(key(" "))
	reads := src.reads
	_, cmd := m.Update(tickMsg{gen: m.gen})

	if src.reads != reads {
		t.Error("Expected no frame read while paused")
	}
	if cmd == nil {
		t.Error("Expected the scheduler to keep running while paused")
	}
}

func TestNewRunFlushes(t *testing.T) {
	m, _, out := newTestModel(t)

	m.Update(click(10, 5))
	m.Update(key("n"))

	if m.state.Run != 2 {
		t.Errorf("Expected run 2, got %d", m.state.Run)
	}
	if m.buf.Len() != 0 {
		t.Errorf("Expected empty buffer after flush, got %d", m.buf.Len())
	}

	files := recordFiles(t, out)
	if len(files) != 1 || files[0] != "Experiment_I_15_Run_1_20240101_120000.csv" {
		t.Fatalf("Unexpected record files %v", files)
	}
	rows, err := record.ReadFile(filepath.Join(out, files[0]))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(rows) != 1 || rows[0].X != 10 || rows[0].Y != 10 {
		t.Errorf("Unexpected rows %+v", rows)
	}
}

func TestNavigationFlushesAndResetsRun(t *testing.T) {
	tests := []struct {
		key     string
		section string
		flow    float64
	}{
		{"b", "Experiment_I", 20},
		{"a", "Experiment_I", 20},
		{"z", "Experiment_I", 25},
		{"m", "Experiment_II", 15},
		{"d", "Experiment_II", 15},
		{"c", "Experiment_III", 15},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, _, out := newTestModel(t)
			m.Update(key("s"))
			m.Update(click(1, 1))

			m.Update(key(tt.key))

			if m.state.Section() != tt.section || m.state.FlowLevel() != tt.flow {
				t.Errorf("Expected %s/%v, got %s/%v", tt.section, tt.flow, m.state.Section(), m.state.FlowLevel())
			}
			if m.state.Run != 1 {
				t.Errorf("Expected run reset to 1, got %d", m.state.Run)
			}
			files := recordFiles(t, out)
			if len(files) != 1 || files[0] != "Experiment_I_15_Run_2_20240101_120000.csv" {
				t.Errorf("Expected the Run_2 record to be saved first, got %v", files)
			}
		})
	}
}

func TestRunAdjustWithoutFlush(t *testing.T) {
	m, _, out := newTestModel(t)
	m.Update(click(1, 1))

	m.Update(key("x"))
	if m.state.Run != 1 {
		t.Errorf("Expected run to stay at 1, got %d", m.state.Run)
	}
	m.Update(key("s"))
	if m.state.Run != 2 {
		t.Errorf("Expected run 2, got %d", m.state.Run)
	}

	if m.buf.Len() != 1 {
		t.Errorf("Expected buffer untouched, got %d points", m.buf.Len())
	}
	if files := recordFiles(t, out); len(files) != 0 {
		t.Errorf("Expected no files, got %v", files)
	}
}

func TestFlushCollisionKeepsRunAndBuffer(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Update(click(1, 1))
	m.Update(key("n")) // Run_1 saved, now Run_2
	m.Update(key("x")) // back to Run_1 without flush
	m.Update(click(2, 2))
	m.Update(key("m")) // same file name within the same second

	if m.statusLevel != levelError {
		t.Errorf("Expected an error status, got %q: %s", m.statusLevel, m.status)
	}
	if m.state.Section() != "Experiment_I" || m.state.Run != 1 {
		t.Errorf("Expected navigation to be cancelled, got %s", m.state)
	}
	if m.buf.Len() != 1 {
		t.Errorf("Expected the buffer to be kept, got %d points", m.buf.Len())
	}
}

func TestDelayChangeRestartsScheduler(t *testing.T) {
	m, src, _ := newTestModel(t)
	oldGen := m.gen

	_, cmd := m.Update(key("["))
	if m.state.FrameDelayMs != 40 {
		t.Errorf("Expected delay 40, got %d", m.state.FrameDelayMs)
	}
	if m.gen == oldGen || cmd == nil {
		t.Fatal("Expected a new scheduler generation")
	}

	reads := src.reads
	_, cmd = m.Update(tickMsg{gen: oldGen})
	if src.reads != reads || cmd != nil {
		t.Error("Expected ticks of the old generation to be dropped")
	}

	m.Update(tickMsg{gen: m.gen})
	if src.reads != reads+1 {
		t.Error("Expected the current generation to advance playback")
	}
}

func TestSeekKeys(t *testing.T) {
	tests := []struct {
		key  string
		want float64
	}{
		{"f", 5.1},
		{"r", 0},
		{"g", 10},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m, src, _ := newTestModel(t)
			m.Update(key(tt.key))

			got := src.seeks[len(src.seeks)-1]
			if got < tt.want-1e-9 || got > tt.want+1e-9 {
				t.Errorf("Expected seek to %v, got %v", tt.want, got)
			}
		})
	}
}

func TestReplayVisitsPointsAndLeavesPosition(t *testing.T) {
	m, src, _ := newTestModel(t)

	m.Update(click(1, 1)) // t=0.0
	for i := 0; i < 20; i++ {
		m.Update(tickMsg{gen: m.gen})
	}
	m.Update(click(2, 2)) // t=2.0
	for i := 0; i < 10; i++ {
		m.Update(tickMsg{gen: m.gen})
	}

	_, cmd := m.Update(key("v"))
	if !m.state.Replaying || cmd == nil {
		t.Fatal("Expected replay to start")
	}

	// clicks and playback ticks are ignored while replaying
	m.Update(click(3, 3))
	reads := src.reads
	m.Update(tickMsg{gen: m.gen})
	if m.buf.Len() != 2 || src.reads != reads {
		t.Error("Expected replay to suspend capture and playback")
	}

	gen := m.replayGen
	m.Update(replayStepMsg{gen: gen, index: 0})
	if m.replayPoint == nil || m.replayPoint.X != 1 {
		t.Errorf("Expected the first point to be shown, got %+v", m.replayPoint)
	}
	m.Update(replayStepMsg{gen: gen, index: 1})
	m.Update(replayStepMsg{gen: gen, index: 2})

	if m.state.Replaying || m.replayPoint != nil {
		t.Error("Expected replay to finish")
	}
	if len(src.seeks) < 2 || src.seeks[len(src.seeks)-2] != 0 || src.seeks[len(src.seeks)-1] < 1.99 {
		t.Errorf("Expected seeks to each point, got %v", src.seeks)
	}
	// the position is not restored to where playback was before the replay
	if src.Position() > 2.2 {
		t.Errorf("Expected position near the last replayed point, got %v", src.Position())
	}
	if m.buf.Len() != 2 {
		t.Errorf("Replay must not change the buffer, got %d points", m.buf.Len())
	}
}

func TestQuitDuringReplayOnlyAbortsReplay(t *testing.T) {
	m, src, _ := newTestModel(t)
	m.Update(click(1, 1))
	m.Update(key("v"))

	_, cmd := m.Update(key("q"))
	if m.state.Replaying {
		t.Error("Expected replay to be aborted")
	}
	if m.quitting || src.closed || cmd != nil {
		t.Error("Expected the session to keep running")
	}

	m.Update(replayStepMsg{gen: m.replayGen, index: 0})
	if m.replayPoint != nil {
		t.Error("Expected late replay steps to be ignored")
	}
}

func TestQuitFlushesAndCloses(t *testing.T) {
	m, src, out := newTestModel(t)
	m.Update(click(5, 5))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || !m.quitting {
		t.Fatal("Expected the program to quit")
	}
	if !src.closed {
		t.Error("Expected the video to be closed")
	}
	if files := recordFiles(t, out); len(files) != 1 {
		t.Errorf("Expected one record file, got %v", files)
	}
}

func TestEndOfVideoPrompt(t *testing.T) {
	tests := []struct {
		answer    string
		wantFiles int
	}{
		{"y", 1},
		{"n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			m, src, out := newTestModel(t)
			m.Update(click(5, 5))

			m.Update(key("g")) // past the end
			if m.mode != modeSavePrompt {
				t.Fatal("Expected the save prompt at the end of the video")
			}
			m.Update(key("v"))
			if m.state.Replaying {
				t.Error("Expected other keys to be ignored by the prompt")
			}

			_, cmd := m.Update(key(tt.answer))
			if cmd == nil || !m.quitting || !src.closed {
				t.Error("Expected the session to end")
			}
			if files := recordFiles(t, out); len(files) != tt.wantFiles {
				t.Errorf("Expected %d record files, got %v", tt.wantFiles, files)
			}
			if m.buf.Len() != 0 {
				t.Errorf("Expected the buffer to be empty, got %d", m.buf.Len())
			}
		})
	}
}

func TestEndOfVideoWithoutPointsExits(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(key("g"))
	if cmd == nil || !m.quitting {
		t.Error("Expected the session to end without a prompt")
	}
}

func TestZoomControls(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Update(key("+"))
	if m.state.Zoom != 1.1 {
		t.Errorf("Expected zoom 1.1, got %v", m.state.Zoom)
	}

	m.Update(click(len(sliderLabel)+20, testFrameRows+sliderLine))
	if m.state.Zoom != 2.0 {
		t.Errorf("Expected slider click to set zoom 2.0, got %v", m.state.Zoom)
	}

	m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	if m.state.Zoom != 1.9 {
		t.Errorf("Expected wheel to lower zoom to 1.9, got %v", m.state.Zoom)
	}
}

func TestSnapshot(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Update(key("o"))

	files, err := filepath.Glob(filepath.Join(m.snapshotDir, "frame_*.png"))
	if err != nil || len(files) != 1 {
		t.Errorf("Expected one snapshot, got %v (%v)", files, err)
	}
}

func TestHelpToggle(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Update(key("?"))
	if !m.showHelp {
		t.Fatal("Expected help to be shown")
	}
	m.Update(click(1, 1))
	if m.buf.Len() != 0 {
		t.Error("Expected clicks to be ignored under the help panel")
	}
	m.Update(key("?"))
	if m.showHelp {
		t.Error("Expected help to be hidden")
	}
}

func TestHelpPanelSwallowsKeys(t *testing.T) {
	m, src, out := newTestModel(t)
	m.Update(click(10, 5))
	m.Update(key("?"))

	for _, k := range []string{"n", "m", "v", "q"} {
		if _, cmd := m.Update(key(k)); cmd != nil {
			t.Errorf("Expected no command for %q under the help panel", k)
		}
	}
	if m.quitting || src.closed {
		t.Fatal("Expected the session to keep running")
	}
	if m.state.Run != 1 || m.buf.Len() != 1 {
		t.Errorf("Expected run 1 with 1 point, got run %d with %d", m.state.Run, m.buf.Len())
	}
	if files := recordFiles(t, out); len(files) != 0 {
		t.Errorf("Expected no record files, got %v", files)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.showHelp {
		t.Error("Expected esc to close the help panel")
	}
}

func TestTailFollowsRecentPoints(t *testing.T) {
	m, _, _ := newTestModel(t)
	for x := 10; x < 15; x++ {
		m.Update(click(x, 5))
	}

	tests := []struct {
		name  string
		width int
		first string
		count int
	}{
		{"all fit", 200, "(10,10)", 5},
		{"oldest dropped", 58, "(11,10)", 4},
		{"newest kept", 3, "(14,10)", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := m.tailParts(tt.width)
			if len(parts) != tt.count {
				t.Fatalf("Expected %d labels, got %v", tt.count, parts)
			}
			if !strings.HasPrefix(parts[0], tt.first) {
				t.Errorf("Expected first label %s, got %s", tt.first, parts[0])
			}
		})
	}
}

func TestViewHasFixedLayout(t *testing.T) {
	m, _, _ := newTestModel(t)

	lines := splitLines(m.View())
	if len(lines) != testFrameRows+panelHeight {
		t.Errorf("Expected %d lines, got %d", testFrameRows+panelHeight, len(lines))
	}
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return append(lines, s[start:])
}
