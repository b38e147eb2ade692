// Package dispatch performs the simulated key actions that drive the
// instrument. A Dispatcher is the sink the scheduler feeds; the Tracked
// wrapper adds the held-key bookkeeping (release of a non-held key is a
// no-op) and Guard bounds a stalling sink with a timeout.
package dispatch

import "fmt"

// Dispatcher simulates key presses and releases on the input target.
// Implementations may block; callers that cannot stall wrap them in Guard.
type Dispatcher interface {
	Press(key string) error
	Release(key string) error
	Close() error
}

// DispatchError reports one failed key action. A failure never aborts
// playback; the scheduler records it and moves on.
type DispatchError struct {
	Key     string
	Action  string
	Timeout bool
	Err     error
}

func (e *DispatchError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("dispatch %s %s: timed out", e.Action, e.Key)
	}
	return fmt.Sprintf("dispatch %s %s: %v", e.Action, e.Key, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
