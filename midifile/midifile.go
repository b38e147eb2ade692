// Package midifile imports Standard MIDI Files as playable songs: it flattens
// the tracks against the tempo map, transposes the piece into the
// instrument's playable window, pairs note starts and ends into key holds,
// and rolls chords so a per-key-monophonic instrument can voice them.
package midifile

import (
	"math"
	"os"
	"sort"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"

	"windkeys/keymap"
	"windkeys/song"
)

// rawEvent is a note start/end at an absolute tick, before any mapping.
type rawEvent struct {
	tick  int64
	pitch uint8
	on    bool
}

// span is one held key: press at onMs, release at offMs.
type span struct {
	onMs  float64
	offMs float64
	key   string
}

type options struct {
	name        string
	chordWindow float64 // ms
	chordStep   float64 // ms
}

type Option func(*options)

// WithName overrides the song name (track meta and file stem otherwise).
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithChordRoll tunes chord staggering. Onsets within window of a chord's
// first onset are respaced step apart; a zero window disables rolling.
func WithChordRoll(window, step time.Duration) Option {
	return func(o *options) {
		o.chordWindow = float64(window) / float64(time.Millisecond)
		o.chordStep = float64(step) / float64(time.Millisecond)
	}
}

// Import reads the MIDI file at path and builds a validated song.
func Import(path string, km *keymap.Map, opts ...Option) (*song.Song, error) {
	o := options{chordWindow: 20, chordStep: 5}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &song.ParseError{Path: path, Kind: song.BadDocument, Index: -1,
			Msg: err.Error(), Err: err}
	}
	defer f.Close()

	data, err := smf.ReadFrom(f)
	if err != nil {
		return nil, &song.ParseError{Path: path, Kind: song.BadDocument, Index: -1,
			Msg: "invalid midi: " + err.Error(), Err: err}
	}

	mt, ok := data.TimeFormat.(smf.MetricTicks)
	if !ok || uint16(mt) == 0 {
		return nil, &song.ParseError{Path: path, Kind: song.BadTimeFormat, Index: -1,
			Msg: "smpte time division is not supported"}
	}
	division := float64(mt)

	// Flatten every track into absolute-tick note events plus the tempo map.
	var (
		events   []rawEvent
		tempos   []tempoChange
		metaName string
		fileEnd  int64
	)
	for _, track := range data.Tracks {
		var tick int64
		for _, ev := range track {
			tick += int64(ev.Delta)
			msg := ev.Message

			var ch, key, vel uint8
			switch {
			case msg.GetNoteOn(&ch, &key, &vel):
				// velocity-0 note-on is a note-off in disguise
				events = append(events, rawEvent{tick: tick, pitch: key, on: vel > 0})
			case msg.GetNoteOff(&ch, &key, &vel):
				events = append(events, rawEvent{tick: tick, pitch: key, on: false})
			default:
				var bpm float64
				if msg.GetMetaTempo(&bpm) && bpm > 0 {
					tempos = append(tempos, tempoChange{tick: tick, usPerQuarter: 60e6 / bpm})
				}
				var name string
				if metaName == "" && msg.GetMetaTrackName(&name) && name != "" {
					metaName = name
				}
			}
		}
		if tick > fileEnd {
			fileEnd = tick
		}
	}
	if len(events) == 0 {
		return nil, &song.ParseError{Path: path, Kind: song.EmptySong, Index: -1,
			Msg: "no note events"}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		// ends before starts so releases land ahead of a re-press
		return !events[i].on && events[j].on
	})

	events = transpose(events, km)
	if len(events) == 0 {
		return nil, &song.ParseError{Path: path, Kind: song.EmptySong, Index: -1,
			Msg: "no notes inside the playable window"}
	}

	tm := newTempoMap(tempos)
	spans := pairSpans(events, fileEnd, tm, division, km)
	if o.chordWindow > 0 {
		rollChords(spans, o.chordWindow, o.chordStep)
	}
	notes := flatten(spans)

	name := o.name
	if name == "" {
		name = metaName
	}
	if name == "" {
		name = song.Stem(path)
	}
	bpm := math.Round(tm.bpm()*100) / 100

	s, err := song.New(name, bpm, notes)
	if err != nil {
		if pe, ok := err.(*song.ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return s, nil
}

// transpose shifts every pitch by one global offset so the highest pitch
// lands on the top of the playable window, then drops anything that still
// falls outside. The top of the melody always survives; only the deepest
// notes of a very wide piece are trimmed.
func transpose(events []rawEvent, km *keymap.Map) []rawEvent {
	wmin, wmax := km.Window()

	var maxPitch uint8
	for _, ev := range events {
		if ev.pitch > maxPitch {
			maxPitch = ev.pitch
		}
	}
	offset := int(wmax) - int(maxPitch)

	out := events[:0]
	for _, ev := range events {
		p := int(ev.pitch) + offset
		if p < int(wmin) || p > int(wmax) {
			continue
		}
		ev.pitch = uint8(p)
		out = append(out, ev)
	}
	return out
}

// pairSpans matches starts to ends per pitch and converts ticks to
// milliseconds. A start while the same pitch is open closes the open span
// first; a span left open at end of file closes there; stray ends are
// dropped. Every span holds for at least one millisecond.
func pairSpans(events []rawEvent, fileEnd int64, tm tempoMap, division float64, km *keymap.Map) []span {
	type openSpan struct {
		onMs float64
		key  string
	}
	open := make(map[uint8]*openSpan)
	var spans []span

	closeAt := func(pitch uint8, ms float64) {
		sp, ok := open[pitch]
		if !ok {
			return
		}
		off := ms
		if off <= sp.onMs {
			off = sp.onMs + 1
		}
		spans = append(spans, span{onMs: sp.onMs, offMs: off, key: sp.key})
		delete(open, pitch)
	}

	for _, ev := range events {
		ms := tm.msAt(ev.tick, division)
		if !ev.on {
			closeAt(ev.pitch, ms)
			continue
		}
		key, ok := km.Key(ev.pitch)
		if !ok {
			continue
		}
		closeAt(ev.pitch, ms)
		open[ev.pitch] = &openSpan{onMs: ms, key: key}
	}

	endMs := tm.msAt(fileEnd, division)
	for pitch := range open {
		closeAt(pitch, endMs)
	}

	sort.SliceStable(spans, func(i, j int) bool { return spans[i].onMs < spans[j].onMs })
	return spans
}

// rollChords staggers groups of near-simultaneous onsets. Each group member
// is moved to groupStart + k*step, keeping its duration, so chords play as
// fast arpeggios instead of impossible simultaneous holds.
func rollChords(spans []span, window, step float64) {
	i := 0
	n := len(spans)
	for i < n {
		start := spans[i].onMs
		j := i + 1
		for j < n && spans[j].onMs-start <= window {
			j++
		}
		if j-i > 1 {
			for k := i; k < j; k++ {
				delta := start + float64(k-i)*step - spans[k].onMs
				spans[k].onMs += delta
				spans[k].offMs += delta
			}
		}
		i = j
	}
}

// flatten emits the press/release note list in playback order and resolves
// any same-key collisions left after rolling: a press on a held key truncates
// the earlier hold at that instant, and duplicate releases are dropped.
func flatten(spans []span) []song.Note {
	notes := make([]song.Note, 0, len(spans)*2)
	for _, sp := range spans {
		notes = append(notes,
			song.Note{OffsetMillis: int64(math.Round(sp.onMs)), Key: sp.key, Action: song.Press},
			song.Note{OffsetMillis: int64(math.Round(sp.offMs)), Key: sp.key, Action: song.Release},
		)
	}
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].OffsetMillis != notes[j].OffsetMillis {
			return notes[i].OffsetMillis < notes[j].OffsetMillis
		}
		return notes[i].Action == song.Release && notes[j].Action == song.Press
	})

	open := make(map[string]bool)
	out := make([]song.Note, 0, len(notes)+4)
	for _, n := range notes {
		switch n.Action {
		case song.Press:
			if open[n.Key] {
				out = append(out, song.Note{OffsetMillis: n.OffsetMillis, Key: n.Key, Action: song.Release})
			}
			open[n.Key] = true
			out = append(out, n)
		case song.Release:
			if !open[n.Key] {
				continue
			}
			open[n.Key] = false
			out = append(out, n)
		}
	}
	return out
}
