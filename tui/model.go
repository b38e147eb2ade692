package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"windkeys/debug"
	"windkeys/library"
	"windkeys/playlist"
	"windkeys/scheduler"
	"windkeys/theme"
	"windkeys/widgets"
)

// uiTick is how often the view polls the scheduler's progress snapshot.
const uiTick = 100 * time.Millisecond

type Model struct {
	Sched  *scheduler.Scheduler
	Store  *playlist.Store
	Loader *library.Loader
	Theme  *theme.Theme
	Gap    time.Duration // silence between songs on auto-advance

	rows     []playlist.Entry // current view (canonical or sorted)
	cursor   int
	sortCol  playlist.Column // "" means canonical order
	sortDesc bool

	prog      scheduler.Progress
	activeRef string // ref of the song loaded in the scheduler
	status    string
	statusErr bool
	showHelp  bool
	quitting  bool
	width     int

	// advanceSeq invalidates pending auto-advance timers: any manual
	// transport action bumps it, so a stale advanceMsg is ignored.
	advanceSeq int
}

// TickMsg drives the progress poll.
type TickMsg time.Time

// EventMsg carries one scheduler event into the update loop.
type EventMsg scheduler.Event

type advanceMsg struct{ seq int }

func NewModel(sched *scheduler.Scheduler, store *playlist.Store, loader *library.Loader, th *theme.Theme, gap time.Duration) Model {
	return Model{
		Sched:  sched,
		Store:  store,
		Loader: loader,
		Theme:  th,
		Gap:    gap,
		rows:   store.Entries(),
		prog:   sched.Progress(),
	}
}

// ListenForEvents blocks on the scheduler's event channel and re-arms
// after each delivery.
func ListenForEvents(sched *scheduler.Scheduler) tea.Cmd {
	return func() tea.Msg {
		return EventMsg(<-sched.Events())
	}
}

func tick() tea.Cmd {
	return tea.Tick(uiTick, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) advanceAfter(seq int) tea.Cmd {
	return tea.Tick(m.Gap, func(time.Time) tea.Msg { return advanceMsg{seq: seq} })
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(),
		ListenForEvents(m.Sched),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.prog = m.Sched.Progress()
		if debug.Every("tui.tick", 100) {
			slog.Debug("ui tick", "state", m.prog.State.String(), "elapsed_ms", m.prog.ElapsedMillis)
		}
		return m, tick()

	case EventMsg:
		return m.handleEvent(scheduler.Event(msg))

	case advanceMsg:
		if msg.seq != m.advanceSeq || m.quitting {
			return m, nil
		}
		if e, ok := m.canonicalNeighbor(m.activeRef, 1); ok {
			m.playEntry(e)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.showHelp && key != "q" && key != "ctrl+c" {
		m.showHelp = false
		return m, nil
	}

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		m.Sched.Stop()
		return m, tea.Quit

	case "?":
		m.showHelp = true

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case "enter":
		if e, ok := m.selected(); ok {
			m.playEntry(e)
		}

	case " ", "f11":
		if err := m.Sched.TogglePause(); err != nil {
			m.setErr(err.Error())
		}
		m.prog = m.Sched.Progress()

	case "s":
		m.advanceSeq++
		m.Sched.Stop()
		m.prog = m.Sched.Progress()
		m.setStatus("stopped")

	case "left":
		m.seekBy(-5000)
	case "right":
		m.seekBy(5000)

	case "n":
		if e, ok := m.canonicalNeighbor(m.activeRef, 1); ok {
			m.playEntry(e)
		}
	case "N":
		if e, ok := m.canonicalNeighbor(m.activeRef, -1); ok {
			m.playEntry(e)
		}

	case "J":
		m.moveSelected(1)
	case "K":
		m.moveSelected(-1)

	case "d":
		if e, ok := m.selected(); ok {
			if err := m.Store.Remove(e.Ref); err != nil {
				m.setErr(err.Error())
			} else {
				m.setStatus("removed " + displayName(e))
			}
			m.refresh()
			if m.cursor >= len(m.rows) && m.cursor > 0 {
				m.cursor = len(m.rows) - 1
			}
		}

	case "1":
		m.setSort(playlist.ByName)
	case "2":
		m.setSort(playlist.ByDuration)
	case "3":
		m.setSort(playlist.ByBPM)
	case "0":
		keep := m.selectedRef()
		m.sortCol, m.sortDesc = "", false
		m.refresh()
		m.cursorTo(keep)
	}

	return m, nil
}

func (m Model) handleEvent(ev scheduler.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{ListenForEvents(m.Sched)}

	switch ev.Kind {
	case scheduler.EventFinished:
		m.setStatus("finished " + ev.Song)
		if m.Store.Len() > 0 {
			m.advanceSeq++
			cmds = append(cmds, m.advanceAfter(m.advanceSeq))
		}
	case scheduler.EventStarted, scheduler.EventResumed:
		m.setStatus("playing " + ev.Song)
	case scheduler.EventPaused:
		m.setStatus("paused " + ev.Song)
	case scheduler.EventDispatchError:
		m.setErr(fmt.Sprintf("dispatch: %v", ev.Err))
	}

	m.prog = m.Sched.Progress()
	return m, tea.Batch(cmds...)
}

// playEntry loads and starts one playlist entry. Any manual start cancels
// a pending auto-advance.
func (m *Model) playEntry(e playlist.Entry) {
	m.advanceSeq++
	if e.Missing {
		m.setErr("missing: " + e.Ref)
		return
	}
	sng, err := m.Loader.Load(e.Ref)
	if err != nil {
		m.setErr(err.Error())
		return
	}
	if err := m.Sched.Load(sng); err != nil {
		m.setErr(err.Error())
		return
	}
	if err := m.Sched.Play(); err != nil {
		m.setErr(err.Error())
		return
	}
	m.activeRef = e.Ref
	m.prog = m.Sched.Progress()
	m.setStatus("playing " + sng.Name)
}

func (m *Model) seekBy(deltaMillis int64) {
	p := m.Sched.Progress()
	if err := m.Sched.Seek(p.ElapsedMillis + deltaMillis); err != nil {
		m.setErr(err.Error())
		return
	}
	m.prog = m.Sched.Progress()
}

func (m *Model) moveSelected(delta int) {
	e, ok := m.selected()
	if !ok {
		return
	}
	idx := -1
	for i, x := range m.Store.Entries() {
		if x.Ref == e.Ref {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	if err := m.Store.MoveTo(e.Ref, idx+delta); err != nil {
		m.setErr(err.Error())
	}
	m.refresh()
	m.cursorTo(e.Ref)
}

func (m *Model) setSort(col playlist.Column) {
	keep := m.selectedRef()
	if m.sortCol == col {
		m.sortDesc = !m.sortDesc
	} else {
		m.sortCol, m.sortDesc = col, false
	}
	m.refresh()
	m.cursorTo(keep)
}

// refresh rebuilds the visible rows from the store, keeping the current
// view order.
func (m *Model) refresh() {
	if m.sortCol == "" {
		m.rows = m.Store.Entries()
		return
	}
	dir := playlist.Ascending
	if m.sortDesc {
		dir = playlist.Descending
	}
	m.rows = m.Store.SortedView(m.sortCol, dir)
}

func (m *Model) selected() (playlist.Entry, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return playlist.Entry{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) selectedRef() string {
	if e, ok := m.selected(); ok {
		return e.Ref
	}
	return ""
}

func (m *Model) cursorTo(ref string) {
	for i, e := range m.rows {
		if e.Ref == ref {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = 0
	}
}

// canonicalNeighbor steps delta entries from ref in canonical order,
// wrapping at both ends. When ref is absent it falls back to the first
// entry going forward and the last going back.
func (m *Model) canonicalNeighbor(ref string, delta int) (playlist.Entry, bool) {
	all := m.Store.Entries()
	if len(all) == 0 {
		return playlist.Entry{}, false
	}
	idx := -1
	for i, e := range all {
		if e.Ref == ref {
			idx = i
			break
		}
	}
	if idx < 0 {
		if delta >= 0 {
			return all[0], true
		}
		return all[len(all)-1], true
	}
	n := len(all)
	return all[((idx+delta)%n+n)%n], true
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setErr(s string) {
	m.status, m.statusErr = s, true
	slog.Warn("ui error", "error", s)
}

func displayName(e playlist.Entry) string {
	if e.Name != "" {
		return e.Name
	}
	return e.Ref
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.Theme
	titleStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	errStyle := lipgloss.NewStyle().Foreground(th.Warning())

	header := titleStyle.Render("windkeys") +
		dimStyle.Render(fmt.Sprintf("  %d songs", m.Store.Len()))

	if m.showHelp {
		return "\n " + header + "\n\n" + widgets.RenderKeyHelp(helpSections()) +
			"\n\n" + dimStyle.Render("  press any key to close")
	}

	rows := make([]widgets.Row, len(m.rows))
	for i, e := range m.rows {
		rows[i] = widgets.Row{
			Name:           displayName(e),
			DurationMillis: e.DurationMillis,
			BPM:            e.BPM,
			Missing:        e.Missing,
			Active:         e.Ref != "" && e.Ref == m.activeRef,
		}
	}
	table := widgets.Table(rows, m.cursor, string(m.sortCol), m.sortDesc, th)

	barWidth := 30
	if m.width > 72 {
		barWidth = m.width - 42
	}
	if barWidth > 60 {
		barWidth = 60
	}
	bar := widgets.Bar(m.prog, barWidth, th)

	status := ""
	if m.status != "" {
		if m.statusErr {
			status = errStyle.Render(m.status)
		} else {
			status = dimStyle.Render(m.status)
		}
	}

	help := dimStyle.Render("enter:play  space:pause  s:stop  ←→:seek  n/N:next/prev  J/K:move  d:del  1/2/3:sort  0:canonical  ?:help  q:quit")

	var out strings.Builder
	out.WriteString("\n ")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(table)
	out.WriteString("\n\n ")
	out.WriteString(bar)
	out.WriteString("\n ")
	out.WriteString(status)
	out.WriteString("\n\n ")
	out.WriteString(help)
	return out.String()
}

func helpSections() []widgets.KeySection {
	return []widgets.KeySection{
		{Title: "  Transport", Keys: []widgets.KeyBinding{
			{Key: "enter", Desc: "load and play the selected song"},
			{Key: "space/f11", Desc: "pause / resume"},
			{Key: "s", Desc: "stop and release held keys"},
			{Key: "left/right", Desc: "seek 5s back / forward"},
			{Key: "n / N", Desc: "next / previous song"},
		}},
		{Title: "  Playlist", Keys: []widgets.KeyBinding{
			{Key: "up/down", Desc: "move cursor (also k/j)"},
			{Key: "J / K", Desc: "move entry down / up"},
			{Key: "d", Desc: "remove entry"},
			{Key: "1/2/3", Desc: "sort by name/length/bpm, again to flip"},
			{Key: "0", Desc: "back to playlist order"},
		}},
		{Title: "  General", Keys: []widgets.KeyBinding{
			{Key: "?", Desc: "this help"},
			{Key: "q", Desc: "quit (stops playback)"},
		}},
	}
}
