package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Cursor  rune // ▸ selected playlist row
	Playing rune // ▶ transport state
	Paused  rune // ‖
	Stopped rune // ■
	Missing rune // ✗ unresolvable playlist ref

	SortAsc  rune // ↑ active sort column marker
	SortDesc rune // ↓

	BarFull  rune // █ progress bar fill
	BarEmpty rune // ░
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Cursor:  '▸',
			Playing: '▶',
			Paused:  '‖',
			Stopped: '■',
			Missing: '✗',

			SortAsc:  '↑',
			SortDesc: '↓',

			BarFull:  '█',
			BarEmpty: '░',
		},
	}
}

// Color roles mapped to palette positions (0-1). The positions land on
// exact Nord indices; a user palette gets the analogous ramp spots.
const (
	RoleBG      = 0.0       // darkest background
	RoleSurface = 1.0 / 15  // raised background
	RoleMuted   = 3.0 / 15  // dim text, missing entries
	RoleFG      = 6.0 / 15  // readable text
	RoleAccent  = 8.0 / 15  // headers, bar fill
	RoleCursor  = 9.0 / 15  // selected row
	RoleWarning = 11.0 / 15 // errors in the status line
	RoleActive  = 13.0 / 15 // currently playing row
	RoleSuccess = 14.0 / 15 // finished/ok status
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) Surface() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSurface))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
