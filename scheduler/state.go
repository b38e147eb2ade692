package scheduler

import (
	"errors"
	"fmt"
)

// State is the playback state machine position.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrNoSong means play was requested before any song was loaded.
var ErrNoSong = errors.New("no song loaded")

// ErrClosed means the scheduler loop has shut down.
var ErrClosed = errors.New("scheduler closed")

// StateError rejects an operation that is invalid in the current state.
// The operation has no side effect.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s while %s", e.Op, e.State)
}
