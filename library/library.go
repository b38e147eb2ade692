// Package library resolves playlist refs into loaded songs. A ref is a path
// to either a native song document or a MIDI file; MIDI imports go through
// the compiled-song cache so a large file is only converted once.
package library

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"windkeys/keymap"
	"windkeys/midifile"
	"windkeys/song"
)

// Loader loads songs by file type. The zero value works: default keymap,
// no cache, chord rolling off.
type Loader struct {
	Keymap      *keymap.Map
	Cache       *song.Cache
	ChordWindow time.Duration
	ChordStep   time.Duration
	Log         *slog.Logger
}

// Load resolves ref into a Song. Failures are per-file ParseErrors; a bad
// ref never affects other loads.
func (l *Loader) Load(ref string) (*song.Song, error) {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".json":
		return song.ParseFile(ref)
	case ".mid", ".midi":
		return l.importMIDI(ref)
	}
	return nil, &song.ParseError{Path: ref, Kind: song.BadDocument, Index: -1,
		Msg: "unsupported file type"}
}

func (l *Loader) importMIDI(ref string) (*song.Song, error) {
	if l.Cache != nil {
		if s, ok := l.Cache.Get(ref); ok {
			return s, nil
		}
	}

	km := l.Keymap
	if km == nil {
		km = keymap.Default()
	}
	s, err := midifile.Import(ref, km, midifile.WithChordRoll(l.ChordWindow, l.ChordStep))
	if err != nil {
		return nil, err
	}

	if l.Cache != nil {
		if err := l.Cache.Put(ref, s); err != nil {
			l.logger().Warn("song cache write failed", "path", ref, "error", err)
		}
	}
	return s, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Log != nil {
		return l.Log
	}
	return slog.Default()
}
