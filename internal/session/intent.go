package session

// IntentKind enumerates everything a single input event can ask for
type IntentKind int

const (
	IntentNone IntentKind = iota
	IntentQuit
	IntentZoomIn
	IntentZoomOut
	IntentZoomSlider
	IntentTogglePause
	IntentSlower
	IntentFaster
	IntentSeek
	IntentReplay
	IntentNewRun
	IntentRunUp
	IntentRunDown
	IntentFlowNext
	IntentFlowPrev
	IntentSectionNext
	IntentSectionPrev
	IntentCapture
	IntentSnapshot
	IntentHelp
)

var intentNames = map[IntentKind]string{
	IntentNone:        "none",
	IntentQuit:        "quit",
	IntentZoomIn:      "zoom-in",
	IntentZoomOut:     "zoom-out",
	IntentZoomSlider:  "zoom-slider",
	IntentTogglePause: "pause",
	IntentSlower:      "slower",
	IntentFaster:      "faster",
	IntentSeek:        "seek",
	IntentReplay:      "replay",
	IntentNewRun:      "new-run",
	IntentRunUp:       "run-up",
	IntentRunDown:     "run-down",
	IntentFlowNext:    "flow-next",
	IntentFlowPrev:    "flow-prev",
	IntentSectionNext: "section-next",
	IntentSectionPrev: "section-prev",
	IntentCapture:     "capture",
	IntentSnapshot:    "snapshot",
	IntentHelp:        "help",
}

func (k IntentKind) String() string {
	if name, ok := intentNames[k]; ok {
		return name
	}
	return "unknown"
}

// Intent is a decoded input event. Only the fields relevant to Kind are set:
// Delta for IntentSeek (seconds), X and Y for IntentCapture (source pixels),
// Slider for IntentZoomSlider (0-30).
type Intent struct {
	Kind   IntentKind
	Delta  float64
	X, Y   int
	Slider int
}

// FlushesFirst reports whether the buffer must be persisted before the
// intent is applied. Every section and flow change flushes, whichever key
// produced it, so no run's points can leak into the next run.
func (in Intent) FlushesFirst() bool {
	switch in.Kind {
	case IntentQuit, IntentNewRun,
		IntentFlowNext, IntentFlowPrev,
		IntentSectionNext, IntentSectionPrev:
		return true
	}
	return false
}

// Apply returns the state after the pure part of the intent. Side effects
// (flushing, seeking, capturing, replaying) belong to the caller.
func (s State) Apply(in Intent) State {
	switch in.Kind {
	case IntentZoomIn:
		return s.AdjustZoom(ZoomStep)
	case IntentZoomOut:
		return s.AdjustZoom(-ZoomStep)
	case IntentZoomSlider:
		return s.SetZoomSlider(in.Slider)
	case IntentTogglePause:
		return s.TogglePause()
	case IntentSlower:
		return s.AdjustFrameDelay(FrameDelayStep)
	case IntentFaster:
		return s.AdjustFrameDelay(-FrameDelayStep)
	case IntentNewRun, IntentRunUp:
		return s.AdjustRun(1)
	case IntentRunDown:
		return s.AdjustRun(-1)
	case IntentFlowNext:
		return s.CycleFlow(1)
	case IntentFlowPrev:
		return s.CycleFlow(-1)
	case IntentSectionNext:
		return s.CycleSection(1)
	case IntentSectionPrev:
		return s.CycleSection(-1)
	}
	return s
}
