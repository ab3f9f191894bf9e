package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmynk/subtrack/internal/listing"
)

// stateMsg delivers a controller snapshot to the program.
type stateMsg listing.State

// feed hands controller snapshots to the program without ever blocking
// the controller. Only the newest undelivered snapshot is kept.
type feed struct {
	ch chan listing.State
}

func newFeed() *feed {
	return &feed{ch: make(chan listing.State, 1)}
}

// push replaces any undelivered snapshot with s.
func (f *feed) push(s listing.State) {
	for {
		select {
		case f.ch <- s:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

// next waits for the following snapshot.
func (f *feed) next() tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-f.ch)
	}
}
