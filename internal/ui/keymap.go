package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/yildizm/FlowTrack/internal/session"
)

// Keymap turns key presses into intents. Seek distances are configurable.
type Keymap struct {
	RewindSeconds   float64
	SkipSeconds     float64
	FastSkipSeconds float64
}

// DefaultKeymap uses 5 s rewind and skip and 60 s fast skip
func DefaultKeymap() Keymap {
	return Keymap{RewindSeconds: 5, SkipSeconds: 5, FastSkipSeconds: 60}
}

// Intent maps one key to exactly one intent. ok is false for unbound keys.
func (k Keymap) Intent(msg tea.KeyMsg) (session.Intent, bool) {
	kind := session.IntentNone
	var delta float64

	switch msg.String() {
	case "q", "ctrl+c":
		kind = session.IntentQuit
	case "+", "=":
		kind = session.IntentZoomIn
	case "-":
		kind = session.IntentZoomOut
	case "p", " ":
		kind = session.IntentTogglePause
	case "[":
		kind = session.IntentSlower
	case "]":
		kind = session.IntentFaster
	case "r":
		kind, delta = session.IntentSeek, -k.RewindSeconds
	case "f":
		kind, delta = session.IntentSeek, k.SkipSeconds
	case "g":
		kind, delta = session.IntentSeek, k.FastSkipSeconds
	case "e":
		kind, delta = session.IntentSeek, -k.FastSkipSeconds
	case "v":
		kind = session.IntentReplay
	case "n":
		kind = session.IntentNewRun
	case "s":
		kind = session.IntentRunUp
	case "x":
		kind = session.IntentRunDown
	case "b", "a":
		kind = session.IntentFlowNext
	case "z":
		kind = session.IntentFlowPrev
	case "m", "d":
		kind = session.IntentSectionNext
	case "c":
		kind = session.IntentSectionPrev
	case "o":
		kind = session.IntentSnapshot
	case "?":
		kind = session.IntentHelp
	default:
		return session.Intent{}, false
	}

	return session.Intent{Kind: kind, Delta: delta}, true
}

// helpEntry is one line of the help panel
type helpEntry struct {
	keys string
	desc string
}

var helpEntries = []helpEntry{
	{"click", "capture point at the clicked pixel"},
	{"p space", "pause / resume"},
	{"+ = -", "zoom in / out (wheel or slider too)"},
	{"[ ]", "slower / faster playback"},
	{"r f", "rewind / skip"},
	{"e g", "fast skip backward / forward"},
	{"v", "replay captured points"},
	{"n", "save run and start the next one"},
	{"s x", "run number up / down without saving"},
	{"b a z", "flow level forward / forward / backward (saves)"},
	{"m d c", "section forward / forward / backward (saves)"},
	{"o", "save a snapshot of the current frame"},
	{"?", "toggle this help"},
	{"q", "save and quit (aborts replay while replaying)"},
}
