package dispatch

import (
	"errors"
	"time"
)

// DefaultTimeout bounds a single key action against a stalled input target.
const DefaultTimeout = 50 * time.Millisecond

// Guard bounds every call on the wrapped Dispatcher with a timeout. A call
// that overruns fails with a timeout DispatchError; its eventual result is
// discarded, so a stalled sink costs one goroutine until it returns instead
// of stalling the scheduling timeline.
type Guard struct {
	d       Dispatcher
	timeout time.Duration
}

func WithTimeout(d Dispatcher, timeout time.Duration) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Guard{d: d, timeout: timeout}
}

func (g *Guard) Press(key string) error {
	return g.call(key, "press", func() error { return g.d.Press(key) })
}

func (g *Guard) Release(key string) error {
	return g.call(key, "release", func() error { return g.d.Release(key) })
}

func (g *Guard) Close() error {
	return g.call("", "close", g.d.Close)
}

func (g *Guard) call(key, action string, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		if err == nil {
			return nil
		}
		var derr *DispatchError
		if errors.As(err, &derr) {
			return err
		}
		return &DispatchError{Key: key, Action: action, Err: err}
	case <-time.After(g.timeout):
		return &DispatchError{Key: key, Action: action, Timeout: true}
	}
}
