package scheduler

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"windkeys/dispatch"
	"windkeys/song"
)

// session is the per-playback state. It exists only while a song is playing
// or paused; stop and finish discard it. The loaded song itself outlives the
// session so play can restart it.
type session struct {
	id        string
	state     State     // Playing or Paused
	startWall time.Time // reference point while Playing
	playedMS  int64     // musical ms accumulated before startWall
	cursor    int
	skipped   int
}

// engine is the playback state machine. All methods take the current time
// as a parameter, so the engine itself is deterministic; the surrounding
// loop supplies real time.
type engine struct {
	d   *dispatch.Tracked
	sng *song.Song
	cur *session
}

func newEngine(d *dispatch.Tracked) *engine {
	return &engine{d: d}
}

func (e *engine) state() State {
	if e.cur == nil {
		return Stopped
	}
	return e.cur.state
}

// elapsed is the musical position. Pausing freezes it; resuming re-bases
// startWall so the position is independent of how long the pause lasted.
func (e *engine) elapsed(now time.Time) int64 {
	if e.cur == nil {
		return 0
	}
	if e.cur.state == Paused {
		return e.cur.playedMS
	}
	return e.cur.playedMS + now.Sub(e.cur.startWall).Milliseconds()
}

// load replaces the loaded song, implicitly stopping an active session.
func (e *engine) load(s *song.Song, now time.Time) []Event {
	evs := e.stop(now)
	e.sng = s
	return append(evs, Event{Kind: EventLoaded, Song: s.Name})
}

func (e *engine) play(now time.Time) ([]Event, error) {
	if e.cur != nil {
		if e.cur.state == Playing {
			return nil, &StateError{Op: "play", State: Playing}
		}
		e.cur.startWall = now
		e.cur.state = Playing
		ev := Event{Kind: EventResumed, Session: e.cur.id, Song: e.sng.Name, At: e.cur.playedMS}
		return []Event{ev}, nil
	}
	if e.sng == nil {
		return nil, ErrNoSong
	}
	e.cur = &session{
		id:        uuid.New().String(),
		state:     Playing,
		startWall: now,
	}
	return []Event{{Kind: EventStarted, Session: e.cur.id, Song: e.sng.Name}}, nil
}

func (e *engine) pause(now time.Time) ([]Event, error) {
	if e.state() != Playing {
		return nil, &StateError{Op: "pause", State: e.state()}
	}
	e.cur.playedMS = e.elapsed(now)
	e.cur.state = Paused
	ev := Event{Kind: EventPaused, Session: e.cur.id, Song: e.sng.Name, At: e.cur.playedMS}
	return []Event{ev}, nil
}

func (e *engine) toggle(now time.Time) ([]Event, error) {
	switch e.state() {
	case Playing:
		return e.pause(now)
	case Paused:
		return e.play(now)
	}
	return nil, &StateError{Op: "toggle pause", State: Stopped}
}

// seek moves the musical position. Held keys are force-released: their
// releases may lie before the target and would otherwise never fire. The
// cursor lands on the first note at or past the target, so skipped notes
// stay skipped and a release that arrives for an unheld key is a no-op.
func (e *engine) seek(ms int64, now time.Time) ([]Event, error) {
	if e.cur == nil {
		return nil, &StateError{Op: "seek", State: Stopped}
	}
	if ms < 0 {
		ms = 0
	}
	if ms > e.sng.DurationMillis {
		ms = e.sng.DurationMillis
	}

	var evs []Event
	if err := e.d.ReleaseAll(); err != nil {
		evs = append(evs, Event{Kind: EventDispatchError, Session: e.cur.id, Song: e.sng.Name, At: ms, Err: err})
	}
	e.cur.cursor = sort.Search(len(e.sng.Notes), func(i int) bool {
		return e.sng.Notes[i].OffsetMillis >= ms
	})
	e.cur.playedMS = ms
	if e.cur.state == Playing {
		e.cur.startWall = now
	}
	return append(evs, Event{Kind: EventSeeked, Session: e.cur.id, Song: e.sng.Name, At: ms}), nil
}

// stop force-releases held keys and discards the session. The loaded song
// is kept so play can restart it. Stopping when stopped is a no-op.
func (e *engine) stop(now time.Time) []Event {
	if e.cur == nil {
		return nil
	}
	id, at := e.cur.id, e.elapsed(now)
	var evs []Event
	if err := e.d.ReleaseAll(); err != nil {
		evs = append(evs, Event{Kind: EventDispatchError, Session: id, Song: e.sng.Name, At: at, Err: err})
	}
	e.cur = nil
	return append(evs, Event{Kind: EventStopped, Session: id, Song: e.sng.Name, At: at})
}

// advance dispatches every note due at the current position, in offset
// order. Recomputing elapsed from the absolute time base means a late tick
// catches up in one batch and scheduling error never compounds. A failed
// dispatch is counted and skipped; playback continues.
func (e *engine) advance(now time.Time) []Event {
	if e.state() != Playing {
		return nil
	}
	el := e.elapsed(now)

	var evs []Event
	for e.cur.cursor < len(e.sng.Notes) {
		n := e.sng.Notes[e.cur.cursor]
		if n.OffsetMillis > el {
			break
		}
		var err error
		if n.Action == song.Press {
			err = e.d.Press(n.Key)
		} else {
			err = e.d.Release(n.Key)
		}
		if err != nil {
			e.cur.skipped++
			evs = append(evs, Event{Kind: EventDispatchError, Session: e.cur.id, Song: e.sng.Name, At: n.OffsetMillis, Err: err})
		}
		e.cur.cursor++
	}

	if e.cur.cursor >= len(e.sng.Notes) {
		id, at := e.cur.id, e.sng.DurationMillis
		if err := e.d.ReleaseAll(); err != nil {
			evs = append(evs, Event{Kind: EventDispatchError, Session: id, Song: e.sng.Name, At: at, Err: err})
		}
		e.cur = nil
		evs = append(evs, Event{Kind: EventFinished, Session: id, Song: e.sng.Name, At: at})
	}
	return evs
}

func (e *engine) progress(now time.Time) Progress {
	p := Progress{State: e.state()}
	if e.sng == nil {
		return p
	}
	p.Song = e.sng.Name
	p.BPM = e.sng.BPM
	p.DurationMillis = e.sng.DurationMillis
	p.Notes = len(e.sng.Notes)
	if e.cur == nil {
		return p
	}
	p.SessionID = e.cur.id
	p.Cursor = e.cur.cursor
	p.Skipped = e.cur.skipped
	if el := e.elapsed(now); el < p.DurationMillis {
		p.ElapsedMillis = el
	} else {
		p.ElapsedMillis = p.DurationMillis
	}
	return p
}
