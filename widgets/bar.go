package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"windkeys/scheduler"
	"windkeys/theme"
)

// Bar renders the transport line: state symbol and word, a progress bar of
// width cells, mm:ss position over total, BPM, and the skip count when any
// dispatches failed.
func Bar(p scheduler.Progress, width int, th *theme.Theme) string {
	if width < 10 {
		width = 10
	}

	var sym rune
	var stateStyle lipgloss.Style
	switch p.State {
	case scheduler.Playing:
		sym = th.Symbols.Playing
		stateStyle = lipgloss.NewStyle().Foreground(th.Success()).Bold(true)
	case scheduler.Paused:
		sym = th.Symbols.Paused
		stateStyle = lipgloss.NewStyle().Foreground(th.Active()).Bold(true)
	default:
		sym = th.Symbols.Stopped
		stateStyle = lipgloss.NewStyle().Foreground(th.Muted())
	}

	fill := 0
	if p.DurationMillis > 0 {
		fill = int(int64(width) * p.ElapsedMillis / p.DurationMillis)
	}
	if fill < 0 {
		fill = 0
	}
	if fill > width {
		fill = width
	}
	bar := lipgloss.NewStyle().Foreground(th.Accent()).
		Render(strings.Repeat(string(th.Symbols.BarFull), fill)) +
		lipgloss.NewStyle().Foreground(th.Surface()).
			Render(strings.Repeat(string(th.Symbols.BarEmpty), width-fill))

	var out strings.Builder
	out.WriteString(stateStyle.Render(fmt.Sprintf("%c %s", sym, pad(strings.ToUpper(p.State.String()), 7))))
	out.WriteString(" ")
	out.WriteString(bar)
	out.WriteString(lipgloss.NewStyle().Foreground(th.FG()).
		Render(fmt.Sprintf(" %s / %s", Clock(p.ElapsedMillis), Clock(p.DurationMillis))))
	if p.BPM > 0 {
		out.WriteString(lipgloss.NewStyle().Foreground(th.Muted()).
			Render(fmt.Sprintf("  %.0f bpm", p.BPM)))
	}
	if p.Skipped > 0 {
		out.WriteString(lipgloss.NewStyle().Foreground(th.Warning()).
			Render(fmt.Sprintf("  %d skipped", p.Skipped)))
	}
	return out.String()
}

// Clock formats a millisecond offset as mm:ss. Minutes grow past two
// digits rather than wrapping.
func Clock(millis int64) string {
	if millis < 0 {
		millis = 0
	}
	s := millis / 1000
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
