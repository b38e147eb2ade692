package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"windkeys/theme"
)

// Row is one playlist entry prepared for display.
type Row struct {
	Name           string
	DurationMillis int64
	BPM            float64
	Missing        bool
	Active         bool
}

const nameWidth = 34

// Table renders the playlist as a three column table. cursor is the
// highlighted row index. sortCol names the view order ("name", "duration",
// "bpm", or "" for canonical) and desc its direction; the active column
// carries an arrow in the header.
func Table(rows []Row, cursor int, sortCol string, desc bool, th *theme.Theme) string {
	headStyle := lipgloss.NewStyle().Foreground(th.Muted()).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(th.FG())
	cursorStyle := lipgloss.NewStyle().Foreground(th.Cursor()).Bold(true)
	activeStyle := lipgloss.NewStyle().Foreground(th.Accent())
	missingStyle := lipgloss.NewStyle().Foreground(th.Muted())

	arrow := func(col string) string {
		if col != sortCol {
			return ""
		}
		if desc {
			return " " + string(th.Symbols.SortDesc)
		}
		return " " + string(th.Symbols.SortAsc)
	}

	var out strings.Builder
	head := fmt.Sprintf("    %s %s %s",
		pad("NAME"+arrow("name"), nameWidth),
		rpad("LENGTH"+arrow("duration"), 8),
		rpad("BPM"+arrow("bpm"), 5))
	out.WriteString(headStyle.Render(head))
	out.WriteString("\n")

	if len(rows) == 0 {
		out.WriteString(missingStyle.Render("    (no songs)"))
		return out.String()
	}

	for i, r := range rows {
		marker := " "
		if i == cursor {
			marker = string(th.Symbols.Cursor)
		}
		flag := " "
		if r.Missing {
			flag = string(th.Symbols.Missing)
		}
		bpm := ""
		if r.BPM > 0 {
			bpm = fmt.Sprintf("%.0f", r.BPM)
		}
		line := fmt.Sprintf("%s %s %s %s %s",
			marker, flag,
			pad(truncate(r.Name, nameWidth), nameWidth),
			rpad(Clock(r.DurationMillis), 8),
			rpad(bpm, 5))

		style := rowStyle
		switch {
		case i == cursor:
			style = cursorStyle
		case r.Missing:
			style = missingStyle
		case r.Active:
			style = activeStyle
		}
		out.WriteString(style.Render(line))
		if i < len(rows)-1 {
			out.WriteString("\n")
		}
	}
	return out.String()
}

// pad left-aligns s in w cells, counting runes so the arrow and marker
// symbols do not skew fmt's byte padding.
func pad(s string, w int) string {
	n := len([]rune(s))
	if n >= w {
		return s
	}
	return s + strings.Repeat(" ", w-n)
}

func rpad(s string, w int) string {
	n := len([]rune(s))
	if n >= w {
		return s
	}
	return strings.Repeat(" ", w-n) + s
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) <= w {
		return s
	}
	return string(r[:w-1]) + "…"
}
