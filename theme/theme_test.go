package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNordRampEndpoints(t *testing.T) {
	p := Nord()
	require.Len(t, p.Colors, 16)
	assert.Equal(t, RGB{0x2e, 0x34, 0x40}, p.Lookup(0))
	assert.Equal(t, RGB{0xb4, 0x8e, 0xad}, p.Lookup(1))
	assert.Equal(t, RGB{0x2e, 0x34, 0x40}, p.Lookup(-3))
	assert.Equal(t, RGB{0xb4, 0x8e, 0xad}, p.Lookup(42))
}

func TestLookupInterpolates(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {100, 200, 40}}}
	assert.Equal(t, RGB{50, 100, 20}, p.Lookup(0.5))
}

func TestIndexClamps(t *testing.T) {
	p := Nord()
	assert.Equal(t, p.Colors[0], p.Index(-1))
	assert.Equal(t, p.Colors[15], p.Index(99))
	assert.Equal(t, p.Colors[7], p.Index(7))
}

func TestRolesHitNordIndices(t *testing.T) {
	th := New(Nord())
	assert.Equal(t, lipgloss.Color("#2e3440"), th.BG())
	assert.Equal(t, lipgloss.Color("#3b4252"), th.Surface())
	assert.Equal(t, lipgloss.Color("#4c566a"), th.Muted())
	assert.Equal(t, lipgloss.Color("#eceff4"), th.FG())
	assert.Equal(t, lipgloss.Color("#88c0d0"), th.Accent())
	assert.Equal(t, lipgloss.Color("#81a1c1"), th.Cursor())
	assert.Equal(t, lipgloss.Color("#bf616a"), th.Warning())
	assert.Equal(t, lipgloss.Color("#ebcb8b"), th.Active())
	assert.Equal(t, lipgloss.Color("#a3be8c"), th.Success())
}

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pal.gpl")
	doc := `GIMP Palette
Name: Test Ramp
Columns: 2
# comment
  0   0   0 black
255 255 255 white
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	p, err := LoadGPL(path)
	require.NoError(t, err)
	assert.Equal(t, "Test Ramp", p.Name)
	require.Len(t, p.Colors, 2)
	assert.Equal(t, RGB{0, 0, 0}, p.Colors[0])
	assert.Equal(t, RGB{255, 255, 255}, p.Colors[1])
}

func TestLoadGPLEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pal.gpl")
	require.NoError(t, os.WriteFile(path, []byte("GIMP Palette\n"), 0o644))

	_, err := LoadGPL(path)
	assert.Error(t, err)
}
