package keymap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCoversWindow(t *testing.T) {
	m := Default()
	min, max := m.Window()
	assert.Equal(t, uint8(48), min)
	assert.Equal(t, uint8(83), max)

	for p := min; p <= max; p++ {
		combo, ok := m.Key(p)
		assert.True(t, ok, "pitch %d unmapped", p)
		assert.True(t, ValidCombo(combo), "pitch %d has bad combo %q", p, combo)
	}

	_, ok := m.Key(min - 1)
	assert.False(t, ok)
	_, ok = m.Key(max + 1)
	assert.False(t, ok)
}

func TestDefaultTable(t *testing.T) {
	m := Default()
	want := map[uint8]string{
		72: "q",       // high do
		73: "shift+q", // high do sharp
		75: "ctrl+e",  // high mi flat
		83: "u",       // high ti
		60: "a",       // medium do
		67: "g",       // medium so
		48: "z",       // low do
		58: "ctrl+m",  // low ti flat
		59: "m",       // low ti
	}
	for pitch, combo := range want {
		got, ok := m.Key(pitch)
		require.True(t, ok, "pitch %d", pitch)
		assert.Equal(t, combo, got, "pitch %d", pitch)
	}
}

func TestLoadOverride(t *testing.T) {
	doc := `
window:
  min: 60
  max: 71
keys:
  60: "1"
  61: shift+1
`
	path := filepath.Join(t.TempDir(), "keymap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	m, err := Load(path)
	require.NoError(t, err)

	min, max := m.Window()
	assert.Equal(t, uint8(60), min)
	assert.Equal(t, uint8(71), max)

	got, ok := m.Key(60)
	require.True(t, ok)
	assert.Equal(t, "1", got)

	got, ok = m.Key(61)
	require.True(t, ok)
	assert.Equal(t, "shift+1", got)

	// untouched defaults stay
	got, ok = m.Key(62)
	require.True(t, ok)
	assert.Equal(t, "s", got)
}

func TestLoadRejectsBadCombo(t *testing.T) {
	doc := "keys:\n  60: alt+f4\n"
	path := filepath.Join(t.TempDir(), "keymap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvertedWindow(t *testing.T) {
	doc := "window:\n  min: 80\n  max: 60\n"
	path := filepath.Join(t.TempDir(), "keymap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidCombo(t *testing.T) {
	valid := []string{"q", "shift+q", "ctrl+e", "5", "shift+0"}
	for _, c := range valid {
		assert.True(t, ValidCombo(c), c)
	}
	invalid := []string{"", "+", "alt+q", "shift+", "shift+qq", "Q", "shift+ctrl+q"}
	for _, c := range invalid {
		assert.False(t, ValidCombo(c), c)
	}
}
