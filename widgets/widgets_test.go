package widgets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"windkeys/scheduler"
	"windkeys/theme"
)

func TestClock(t *testing.T) {
	assert.Equal(t, "00:00", Clock(0))
	assert.Equal(t, "00:00", Clock(999))
	assert.Equal(t, "00:59", Clock(59_999))
	assert.Equal(t, "01:00", Clock(60_000))
	assert.Equal(t, "10:05", Clock(605_000))
	assert.Equal(t, "100:00", Clock(6_000_000))
	assert.Equal(t, "00:00", Clock(-5))
}

func TestBarFillAndLabels(t *testing.T) {
	th := theme.New(theme.Nord())
	p := scheduler.Progress{
		State:          scheduler.Playing,
		Song:           "demo",
		BPM:            120,
		ElapsedMillis:  83_000,
		DurationMillis: 225_000,
	}
	out := Bar(p, 10, th)

	assert.Equal(t, 3, strings.Count(out, string(th.Symbols.BarFull)))
	assert.Equal(t, 7, strings.Count(out, string(th.Symbols.BarEmpty)))
	assert.Contains(t, out, "01:23 / 03:45")
	assert.Contains(t, out, "PLAYING")
	assert.Contains(t, out, "120 bpm")
	assert.NotContains(t, out, "skipped")
}

func TestBarSkippedAndStopped(t *testing.T) {
	th := theme.New(theme.Nord())
	out := Bar(scheduler.Progress{Skipped: 2}, 10, th)

	assert.Contains(t, out, "STOPPED")
	assert.Contains(t, out, "2 skipped")
	assert.Equal(t, 0, strings.Count(out, string(th.Symbols.BarFull)))
	assert.Equal(t, 10, strings.Count(out, string(th.Symbols.BarEmpty)))
}

func TestTableMarkers(t *testing.T) {
	th := theme.New(theme.Nord())
	rows := []Row{
		{Name: "alpha", DurationMillis: 90_000, BPM: 120},
		{Name: "gone", DurationMillis: 30_000, Missing: true},
	}
	out := Table(rows, 0, "name", false, th)

	assert.Contains(t, out, string(th.Symbols.Cursor))
	assert.Contains(t, out, string(th.Symbols.Missing))
	assert.Contains(t, out, string(th.Symbols.SortAsc))
	assert.NotContains(t, out, string(th.Symbols.SortDesc))
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "01:30")

	out = Table(rows, 0, "name", true, th)
	assert.Contains(t, out, string(th.Symbols.SortDesc))

	out = Table(nil, 0, "", false, th)
	assert.Contains(t, out, "(no songs)")
}

func TestTableTruncatesLongNames(t *testing.T) {
	th := theme.New(theme.Nord())
	long := strings.Repeat("x", 50)
	out := Table([]Row{{Name: long}}, 0, "", false, th)

	assert.NotContains(t, out, long)
	assert.Contains(t, out, "…")
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{
		{Title: "Transport", Keys: []KeyBinding{{Key: "enter", Desc: "play selected"}}},
		{Title: "Playlist", Keys: []KeyBinding{{Key: "d", Desc: "remove"}}},
	})

	assert.Contains(t, out, "Transport")
	assert.Contains(t, out, "enter")
	assert.Contains(t, out, "play selected")
	assert.Contains(t, out, "\n\nPlaylist")
}
