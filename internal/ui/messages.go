package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// tickMsg advances playback by one frame. gen identifies the scheduler that
// produced it; ticks from a superseded scheduler are dropped.
type tickMsg struct {
	gen int
}

// replayStepMsg shows the index-th replayed point
type replayStepMsg struct {
	gen   int
	index int
}

func tickAfter(delay time.Duration, gen int) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func replayAfter(delay time.Duration, gen, index int) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return replayStepMsg{gen: gen, index: index}
	})
}

func replayNow(gen int) tea.Cmd {
	return func() tea.Msg {
		return replayStepMsg{gen: gen, index: 0}
	}
}
