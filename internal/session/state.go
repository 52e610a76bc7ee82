package session

import (
	"fmt"
	"math"
	"strconv"
)

// Zoom and frame delay bounds.
const (
	MinZoom         = 0.5
	MaxZoom         = 3.0
	ZoomStep        = 0.1
	MaxZoomSlider   = 30
	MinFrameDelayMs = 10
	MaxFrameDelayMs = 200
	FrameDelayStep  = 10
)

// Catalog is the fixed, ordered set of sections and flow levels a session
// navigates. It is shared by every State derived from the same session.
type Catalog struct {
	Sections   []string
	FlowLevels []float64
}

// Validate reports whether the catalog can back a session
func (c Catalog) Validate() error {
	if len(c.Sections) == 0 {
		return fmt.Errorf("catalog needs at least one section")
	}
	if len(c.FlowLevels) == 0 {
		return fmt.Errorf("catalog needs at least one flow level")
	}
	return nil
}

// State is the complete navigation state of a capture session. It is a
// value: every transition returns a new State and leaves the receiver
// untouched.
type State struct {
	catalog Catalog

	SectionIndex int
	FlowIndex    int
	Run          int
	Paused       bool
	Replaying    bool
	Zoom         float64
	FrameDelayMs int
}

// NewState returns the state a session starts in: first section, first
// flow level, run 1, playing.
func NewState(catalog Catalog, zoom float64, frameDelayMs int) (State, error) {
	if err := catalog.Validate(); err != nil {
		return State{}, err
	}
	return State{
		catalog:      catalog,
		Run:          1,
		Zoom:         clampZoom(zoom),
		FrameDelayMs: clampDelay(frameDelayMs),
	}, nil
}

// Catalog returns the section and flow level lists
func (s State) Catalog() Catalog {
	return s.catalog
}

// Section returns the current section name
func (s State) Section() string {
	return s.catalog.Sections[s.SectionIndex]
}

// FlowLevel returns the current flow level
func (s State) FlowLevel() float64 {
	return s.catalog.FlowLevels[s.FlowIndex]
}

// FlowLabel returns the current flow level as it appears in file names and rows
func (s State) FlowLabel() string {
	return FormatFlowLevel(s.FlowLevel())
}

// RunLabel returns the run identifier as stored in records, e.g. Run_3
func (s State) RunLabel() string {
	return RunLabel(s.Run)
}

// CanCapture reports whether a click may reach the buffer
func (s State) CanCapture() bool {
	return !s.Paused && !s.Replaying
}

// TogglePause flips the paused flag
func (s State) TogglePause() State {
	s.Paused = !s.Paused
	return s
}

// WithReplaying sets the replaying flag
func (s State) WithReplaying(replaying bool) State {
	s.Replaying = replaying
	return s
}

// CycleFlow moves the flow level by step with wraparound in both
// directions and resets the run number.
func (s State) CycleFlow(step int) State {
	s.FlowIndex = wrap(s.FlowIndex+step, len(s.catalog.FlowLevels))
	s.Run = 1
	return s
}

// CycleSection moves the section by step with wraparound in both
// directions and resets the run number.
func (s State) CycleSection(step int) State {
	s.SectionIndex = wrap(s.SectionIndex+step, len(s.catalog.Sections))
	s.Run = 1
	return s
}

// AdjustRun changes the run number by delta; it never drops below 1.
func (s State) AdjustRun(delta int) State {
	s.Run += delta
	if s.Run < 1 {
		s.Run = 1
	}
	return s
}

// AdjustZoom changes the zoom factor by delta within [MinZoom, MaxZoom]
func (s State) AdjustZoom(delta float64) State {
	s.Zoom = clampZoom(s.Zoom + delta)
	return s
}

// SetZoomSlider maps a 0-30 slider position onto the zoom factor as
// value/10 with a floor of MinZoom.
func (s State) SetZoomSlider(value int) State {
	s.Zoom = ZoomFromSlider(value)
	return s
}

// ZoomSlider returns the slider position matching the current zoom
func (s State) ZoomSlider() int {
	return SliderFromZoom(s.Zoom)
}

// AdjustFrameDelay changes the frame delay by delta within the allowed range
func (s State) AdjustFrameDelay(delta int) State {
	s.FrameDelayMs = clampDelay(s.FrameDelayMs + delta)
	return s
}

// String summarises the position in the hierarchy, used in logs
func (s State) String() string {
	return fmt.Sprintf("%s/%s/%s", s.Section(), s.FlowLabel(), s.RunLabel())
}

// ZoomFromSlider converts a slider position to a zoom factor
func ZoomFromSlider(value int) float64 {
	if value < 0 {
		value = 0
	}
	if value > MaxZoomSlider {
		value = MaxZoomSlider
	}
	return math.Max(float64(value)/10, MinZoom)
}

// SliderFromZoom converts a zoom factor to the nearest slider position
func SliderFromZoom(zoom float64) int {
	return int(math.Round(clampZoom(zoom) * 10))
}

// RunLabel formats a run number the way records store it
func RunLabel(run int) string {
	return "Run_" + strconv.Itoa(run)
}

// FormatFlowLevel renders a flow level without a trailing ".0" for whole
// numbers, so 15 stays "15" and 12.5 stays "12.5".
func FormatFlowLevel(level float64) string {
	return strconv.FormatFloat(level, 'f', -1, 64)
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

// clampZoom keeps zoom in range and rounds away float drift from repeated
// 0.1 steps.
func clampZoom(zoom float64) float64 {
	zoom = math.Round(zoom*100) / 100
	return math.Min(math.Max(zoom, MinZoom), MaxZoom)
}

func clampDelay(ms int) int {
	if ms < MinFrameDelayMs {
		return MinFrameDelayMs
	}
	if ms > MaxFrameDelayMs {
		return MaxFrameDelayMs
	}
	return ms
}
