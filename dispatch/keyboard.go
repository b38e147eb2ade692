package dispatch

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bendahl/uinput"
)

// DefaultDevice is the uinput node on most Linux systems.
const DefaultDevice = "/dev/uinput"

// combo is a parsed key combo: an optional modifier plus a base key.
type combo struct {
	mod  int // 0 when unmodified
	base int
}

var baseCodes = map[byte]int{
	'a': uinput.KeyA, 'b': uinput.KeyB, 'c': uinput.KeyC, 'd': uinput.KeyD,
	'e': uinput.KeyE, 'f': uinput.KeyF, 'g': uinput.KeyG, 'h': uinput.KeyH,
	'i': uinput.KeyI, 'j': uinput.KeyJ, 'k': uinput.KeyK, 'l': uinput.KeyL,
	'm': uinput.KeyM, 'n': uinput.KeyN, 'o': uinput.KeyO, 'p': uinput.KeyP,
	'q': uinput.KeyQ, 'r': uinput.KeyR, 's': uinput.KeyS, 't': uinput.KeyT,
	'u': uinput.KeyU, 'v': uinput.KeyV, 'w': uinput.KeyW, 'x': uinput.KeyX,
	'y': uinput.KeyY, 'z': uinput.KeyZ,
	'0': uinput.Key0, '1': uinput.Key1, '2': uinput.Key2, '3': uinput.Key3,
	'4': uinput.Key4, '5': uinput.Key5, '6': uinput.Key6, '7': uinput.Key7,
	'8': uinput.Key8, '9': uinput.Key9,
}

var modCodes = map[string]int{
	"shift": uinput.KeyLeftshift,
	"ctrl":  uinput.KeyLeftctrl,
}

func parseCombo(key string) (combo, error) {
	parts := strings.Split(key, "+")
	var c combo
	switch len(parts) {
	case 1:
	case 2:
		mod, ok := modCodes[parts[0]]
		if !ok {
			return combo{}, fmt.Errorf("unknown modifier %q", parts[0])
		}
		c.mod = mod
		parts = parts[1:]
	default:
		return combo{}, fmt.Errorf("bad combo %q", key)
	}
	if len(parts[0]) != 1 {
		return combo{}, fmt.Errorf("bad key %q", key)
	}
	base, ok := baseCodes[parts[0][0]]
	if !ok {
		return combo{}, fmt.Errorf("unmapped key %q", key)
	}
	c.base = base
	return c, nil
}

// Keyboard injects key events through a Linux uinput virtual keyboard.
// Modifier keys are held with reference counts so overlapping combos that
// share shift or ctrl stay correct; base-key hold state is the Tracked
// wrapper's job.
type Keyboard struct {
	mu      sync.Mutex
	dev     uinput.Keyboard
	modHold map[int]int // modifier keycode -> hold count
}

// NewKeyboard creates the virtual keyboard on the given uinput device node.
func NewKeyboard(device string) (*Keyboard, error) {
	if device == "" {
		device = DefaultDevice
	}
	dev, err := uinput.CreateKeyboard(device, []byte("windkeys"))
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard on %s: %w", device, err)
	}
	return &Keyboard{dev: dev, modHold: make(map[int]int)}, nil
}

func (k *Keyboard) Press(key string) error {
	c, err := parseCombo(key)
	if err != nil {
		return &DispatchError{Key: key, Action: "press", Err: err}
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if c.mod != 0 {
		if k.modHold[c.mod] == 0 {
			if err := k.dev.KeyDown(c.mod); err != nil {
				return &DispatchError{Key: key, Action: "press", Err: err}
			}
		}
		k.modHold[c.mod]++
	}
	if err := k.dev.KeyDown(c.base); err != nil {
		if c.mod != 0 {
			k.modHold[c.mod]--
			if k.modHold[c.mod] == 0 {
				k.dev.KeyUp(c.mod)
			}
		}
		return &DispatchError{Key: key, Action: "press", Err: err}
	}
	return nil
}

func (k *Keyboard) Release(key string) error {
	c, err := parseCombo(key)
	if err != nil {
		return &DispatchError{Key: key, Action: "release", Err: err}
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.dev.KeyUp(c.base); err != nil {
		return &DispatchError{Key: key, Action: "release", Err: err}
	}
	if c.mod != 0 && k.modHold[c.mod] > 0 {
		k.modHold[c.mod]--
		if k.modHold[c.mod] == 0 {
			if err := k.dev.KeyUp(c.mod); err != nil {
				return &DispatchError{Key: key, Action: "release", Err: err}
			}
		}
	}
	return nil
}

// Close destroys the virtual device; the kernel drops any keys still down.
func (k *Keyboard) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.dev.Close()
}
