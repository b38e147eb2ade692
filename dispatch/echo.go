package dispatch

import (
	"fmt"
	"io"
	"sync"
)

// Echo writes key actions as text lines instead of injecting them, for
// rehearsal runs and tests.
type Echo struct {
	mu sync.Mutex
	w  io.Writer
}

func NewEcho(w io.Writer) *Echo {
	return &Echo{w: w}
}

func (e *Echo) Press(key string) error   { return e.write("press", key) }
func (e *Echo) Release(key string) error { return e.write("release", key) }
func (e *Echo) Close() error             { return nil }

func (e *Echo) write(action, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := fmt.Fprintf(e.w, "%s %s\n", action, key); err != nil {
		return &DispatchError{Key: key, Action: action, Err: err}
	}
	return nil
}
