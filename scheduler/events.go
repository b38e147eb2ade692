package scheduler

import "fmt"

// EventKind labels a playback event.
type EventKind int

const (
	EventLoaded EventKind = iota
	EventStarted
	EventResumed
	EventPaused
	EventSeeked
	EventStopped
	EventFinished
	EventDispatchError
)

func (k EventKind) String() string {
	switch k {
	case EventLoaded:
		return "loaded"
	case EventStarted:
		return "started"
	case EventResumed:
		return "resumed"
	case EventPaused:
		return "paused"
	case EventSeeked:
		return "seeked"
	case EventStopped:
		return "stopped"
	case EventFinished:
		return "finished"
	case EventDispatchError:
		return "dispatch error"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one playback occurrence, pushed on the scheduler's event channel.
// The channel is buffered and never blocks the loop; a slow listener loses
// events rather than stalling the timeline.
type Event struct {
	Kind    EventKind
	Session string // playback session id; empty for EventLoaded
	Song    string
	At      int64 // musical position in ms when the event happened
	Err     error // set for EventDispatchError
}

// Progress is an atomically published snapshot of the playback position.
// Reading it never blocks the scheduling loop.
type Progress struct {
	State          State
	SessionID      string
	Song           string
	BPM            float64
	ElapsedMillis  int64
	DurationMillis int64
	Cursor         int
	Notes          int
	Skipped        int
}
