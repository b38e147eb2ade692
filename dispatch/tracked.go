package dispatch

import (
	"errors"
	"sort"
	"sync"
)

// Tracked is the held-state boundary around a Dispatcher. It records which
// keys are down, turns releases of non-held keys into no-ops, and can force
// everything up after a seek or stop.
type Tracked struct {
	mu   sync.Mutex
	d    Dispatcher
	held map[string]bool
}

func Track(d Dispatcher) *Tracked {
	return &Tracked{d: d, held: make(map[string]bool)}
}

func (t *Tracked) Press(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.d.Press(key)
	if err == nil {
		t.held[key] = true
	}
	return err
}

// Release is a no-op success when key is not held, so force-releases and
// skipped presses never surface spurious errors.
func (t *Tracked) Release(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.held[key] {
		return nil
	}
	err := t.d.Release(key)
	if err == nil {
		delete(t.held, key)
	}
	return err
}

// ReleaseAll forces every held key up, in sorted order. It keeps going on
// failure and reports the failures joined; keys whose release failed stay
// tracked for the next attempt.
func (t *Tracked) ReleaseAll() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.held))
	for k := range t.held {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		if err := t.d.Release(k); err != nil {
			errs = append(errs, err)
			continue
		}
		delete(t.held, k)
	}
	return errors.Join(errs...)
}

// Held returns the held keys in sorted order.
func (t *Tracked) Held() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]string, 0, len(t.held))
	for k := range t.held {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *Tracked) Close() error {
	return t.d.Close()
}
