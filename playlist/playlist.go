// Package playlist is the ordered, persistent song playlist. The canonical
// order is what next/previous follow and what gets persisted; sorting is a
// pure view and never touches it. Every structural change is written to
// disk immediately so an abnormal exit cannot lose the user's ordering.
package playlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"windkeys/song"
)

var (
	ErrDuplicate = errors.New("song already in playlist")
	ErrNotFound  = errors.New("song not in playlist")
)

// PersistenceError reports a failed playlist write after the retry. The
// in-memory change is kept; only the disk copy is stale.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist playlist to %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Entry is one playlist row, unique by Ref. Missing is derived when the
// store opens and never persisted: a ref that stops resolving keeps its
// slot so the ordering survives renames.
type Entry struct {
	Ref            string  `json:"ref"`
	Name           string  `json:"name"`
	DurationMillis int64   `json:"duration_ms"`
	BPM            float64 `json:"bpm,omitempty"`
	Missing        bool    `json:"-"`
}

type document struct {
	Entries []Entry `json:"entries"`
}

// Column selects a view's sort key.
type Column string

const (
	ByName     Column = "name"
	ByDuration Column = "duration"
	ByBPM      Column = "bpm"
)

// Direction orders a view.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Store holds the canonical playlist order.
type Store struct {
	mu      sync.Mutex
	path    string
	entries []Entry
}

// Open reads the playlist at path. A missing file is an empty playlist.
// Duplicate refs from a hand-edited file keep the first occurrence.
func Open(path string) (*Store, error) {
	st := &Store{path: path}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return nil, &song.ParseError{Path: path, Kind: song.BadDocument, Index: -1,
			Msg: err.Error(), Err: err}
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &song.ParseError{Path: path, Kind: song.BadDocument, Index: -1,
			Msg: "invalid json: " + err.Error(), Err: err}
	}

	seen := make(map[string]bool, len(doc.Entries))
	for _, e := range doc.Entries {
		if seen[e.Ref] {
			continue
		}
		seen[e.Ref] = true
		if _, err := os.Stat(e.Ref); err != nil {
			e.Missing = true
		}
		st.entries = append(st.entries, e)
	}
	return st, nil
}

// Path returns the persistence location.
func (s *Store) Path() string { return s.path }

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Entries returns a copy of the canonical order.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.entries...)
}

// Add appends e and persists. A ref already present is rejected unchanged.
func (s *Store) Add(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(e.Ref) >= 0 {
		return ErrDuplicate
	}
	s.entries = append(s.entries, e)
	return s.persistLocked()
}

// Remove deletes the entry with ref and persists.
func (s *Store) Remove(ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(ref)
	if i < 0 {
		return ErrNotFound
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return s.persistLocked()
}

// MoveTo reorders the entry with ref to index (clamped) and persists.
func (s *Store) MoveTo(ref string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(ref)
	if i < 0 {
		return ErrNotFound
	}
	if index < 0 {
		index = 0
	}
	if index > len(s.entries)-1 {
		index = len(s.entries) - 1
	}
	if index == i {
		return nil
	}

	e := s.entries[i]
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.entries = append(s.entries, Entry{})
	copy(s.entries[index+1:], s.entries[index:])
	s.entries[index] = e
	return s.persistLocked()
}

// SortedView returns the entries ordered by the given column. The sort is
// stable with ties kept in canonical order, so repeated calls agree; the
// canonical order itself is untouched.
func (s *Store) SortedView(col Column, dir Direction) []Entry {
	view := s.Entries()
	sort.SliceStable(view, func(i, j int) bool {
		a, b := view[i], view[j]
		if dir == Descending {
			a, b = b, a
		}
		switch col {
		case ByDuration:
			return a.DurationMillis < b.DurationMillis
		case ByBPM:
			return a.BPM < b.BPM
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	})
	return view
}

func (s *Store) indexOf(ref string) int {
	for i, e := range s.entries {
		if e.Ref == ref {
			return i
		}
	}
	return -1
}

// persistLocked writes the canonical order, retrying once before giving up.
func (s *Store) persistLocked() error {
	if err := s.writeLocked(); err != nil {
		slog.Warn("playlist write failed, retrying", "path", s.path, "error", err)
		if err = s.writeLocked(); err != nil {
			return &PersistenceError{Path: s.path, Err: err}
		}
	}
	return nil
}

// writeLocked replaces the playlist file atomically, so a crash mid-write
// cannot corrupt it.
func (s *Store) writeLocked() error {
	raw, err := json.MarshalIndent(document{Entries: s.entries}, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".playlist-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
