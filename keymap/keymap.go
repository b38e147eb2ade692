// Package keymap maps MIDI pitches to the key combos of the in-game wind
// instrument. The instrument exposes three octaves on the q, a and z rows;
// sharps are played with shift on the natural below, the flat-only degrees
// with ctrl on the natural above.
package keymap

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

// The playable window. Pitches are transposed into [BaseLow, BaseLow+35]
// before mapping; anything outside is unplayable.
const (
	BaseLow  uint8 = 48 // low octave C
	BaseMed  uint8 = BaseLow + 12
	BaseHigh uint8 = BaseLow + 24
)

var (
	highRow = [12]string{"q", "shift+q", "w", "ctrl+e", "e", "r", "shift+r", "t", "shift+t", "y", "ctrl+u", "u"}
	medRow  = [12]string{"a", "shift+a", "s", "ctrl+d", "d", "f", "shift+f", "g", "shift+g", "h", "ctrl+j", "j"}
	lowRow  = [12]string{"z", "shift+z", "x", "ctrl+c", "c", "v", "shift+v", "b", "shift+b", "n", "ctrl+m", "m"}
)

// Map resolves pitches to key combos within a playable window.
type Map struct {
	min, max uint8
	keys     map[uint8]string
}

// Default returns the built-in three-octave map.
func Default() *Map {
	m := &Map{
		min:  BaseLow,
		max:  BaseLow + 35,
		keys: make(map[uint8]string, 36),
	}
	for i := uint8(0); i < 12; i++ {
		m.keys[BaseLow+i] = lowRow[i]
		m.keys[BaseMed+i] = medRow[i]
		m.keys[BaseHigh+i] = highRow[i]
	}
	return m
}

// fileMap is the YAML override shape: a window plus pitch->combo entries
// layered over the defaults.
type fileMap struct {
	Window struct {
		Min uint8 `yaml:"min"`
		Max uint8 `yaml:"max"`
	} `yaml:"window"`
	Keys map[int]string `yaml:"keys"`
}

// Load layers a YAML override file over the default map.
func Load(path string) (*Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fm fileMap
	if err := yaml.Unmarshal(raw, &fm); err != nil {
		return nil, fmt.Errorf("keymap %s: %w", path, err)
	}

	m := Default()
	if fm.Window.Max != 0 {
		if fm.Window.Min >= fm.Window.Max {
			return nil, fmt.Errorf("keymap %s: window min %d must be below max %d",
				path, fm.Window.Min, fm.Window.Max)
		}
		m.min, m.max = fm.Window.Min, fm.Window.Max
	}
	for pitch, combo := range fm.Keys {
		if pitch < 0 || pitch > 127 {
			return nil, fmt.Errorf("keymap %s: pitch %d out of midi range", path, pitch)
		}
		if !ValidCombo(combo) {
			return nil, fmt.Errorf("keymap %s: bad combo %q for pitch %d", path, combo, pitch)
		}
		m.keys[uint8(pitch)] = combo
	}
	return m, nil
}

// Key returns the combo for pitch, if the instrument can play it.
func (m *Map) Key(pitch uint8) (string, bool) {
	combo, ok := m.keys[pitch]
	return combo, ok
}

// Window returns the playable pitch range used by the import transpose.
func (m *Map) Window() (min, max uint8) {
	return m.min, m.max
}

// Pitches returns the mapped pitches in ascending order.
func (m *Map) Pitches() []uint8 {
	out := make([]uint8, 0, len(m.keys))
	for p := range m.keys {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ValidCombo reports whether s is a playable combo: a single letter or digit,
// optionally prefixed with "shift+" or "ctrl+".
func ValidCombo(s string) bool {
	parts := strings.Split(s, "+")
	switch len(parts) {
	case 1:
		return validBase(parts[0])
	case 2:
		return (parts[0] == "shift" || parts[0] == "ctrl") && validBase(parts[1])
	}
	return false
}

func validBase(s string) bool {
	if len(s) != 1 {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
