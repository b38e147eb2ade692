package song

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func note(t int64, key string, a Action) Note {
	return Note{OffsetMillis: t, Key: key, Action: a}
}

func TestNewComputesDuration(t *testing.T) {
	s, err := New("three", 96, []Note{
		note(0, "a", Press),
		note(200, "a", Release),
		note(500, "b", Press),
		note(600, "b", Release),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(600), s.DurationMillis)
	assert.Equal(t, 96.0, s.BPM)
	assert.Len(t, s.Notes, 4)
}

func TestNewCopiesNotes(t *testing.T) {
	in := []Note{note(0, "a", Press), note(100, "a", Release)}
	s, err := New("x", 0, in)
	require.NoError(t, err)

	in[0].Key = "z"
	assert.Equal(t, "a", s.Notes[0].Key)
}

func TestNewRejections(t *testing.T) {
	cases := []struct {
		name  string
		notes []Note
		kind  ParseErrorKind
	}{
		{"empty", nil, EmptySong},
		{"negative offset", []Note{note(-1, "a", Press)}, NonMonotonicTime},
		{"regressing offset", []Note{
			note(100, "a", Press),
			note(50, "a", Release),
		}, NonMonotonicTime},
		{"press while held", []Note{
			note(0, "a", Press),
			note(100, "a", Press),
		}, UnterminatedNote},
		{"never released", []Note{
			note(0, "a", Press),
			note(100, "b", Press),
			note(200, "b", Release),
		}, UnterminatedNote},
		{"orphan release", []Note{
			note(0, "a", Release),
		}, OrphanRelease},
		{"unknown action", []Note{
			{OffsetMillis: 0, Key: "a", Action: "tap"},
		}, UnknownAction},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New("bad", 120, tc.notes)
			require.Error(t, err)
			pe, ok := err.(*ParseError)
			require.True(t, ok, "want *ParseError, got %T", err)
			assert.Equal(t, tc.kind, pe.Kind)
		})
	}
}

func TestRepressOnSameMillisecond(t *testing.T) {
	// release-then-press of the same key at one offset is a legal re-press
	_, err := New("repress", 120, []Note{
		note(0, "q", Press),
		note(200, "q", Release),
		note(200, "q", Press),
		note(400, "q", Release),
	})
	assert.NoError(t, err)
}

func TestDeriveBPM(t *testing.T) {
	// presses every 500ms -> 120 bpm
	s, err := New("even", 0, []Note{
		note(0, "a", Press), note(100, "a", Release),
		note(500, "b", Press), note(600, "b", Release),
		note(1000, "c", Press), note(1100, "c", Release),
	})
	require.NoError(t, err)
	assert.Equal(t, 120.0, s.BPM)

	// intervals 400, 400, 1200 -> median 400 -> 150 bpm
	s, err = New("uneven", 0, []Note{
		note(0, "a", Press), note(50, "a", Release),
		note(400, "b", Press), note(450, "b", Release),
		note(800, "c", Press), note(850, "c", Release),
		note(2000, "d", Press), note(2050, "d", Release),
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, s.BPM)

	// a lone press pair cannot be derived from
	s, err = New("single", 0, []Note{
		note(0, "a", Press), note(100, "a", Release),
	})
	require.NoError(t, err)
	assert.Equal(t, float64(DefaultBPM), s.BPM)

	// simultaneous presses count as one onset
	s, err = New("chord", 0, []Note{
		note(0, "a", Press), note(0, "b", Press),
		note(100, "a", Release), note(100, "b", Release),
		note(250, "c", Press), note(300, "c", Release),
		note(500, "d", Press), note(550, "d", Release),
	})
	require.NoError(t, err)
	assert.Equal(t, 240.0, s.BPM)
}

func TestParseBadJSON(t *testing.T) {
	_, err := Parse(bytes.NewBufferString("{not json"))
	require.Error(t, err)
	pe, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Equal(t, BadDocument, pe.Kind)
}

func TestParseFile(t *testing.T) {
	doc := `{
  "name": "Greensleeves",
  "bpm": 96,
  "notes": [
    {"t": 0, "key": "q", "action": "press"},
    {"t": 180, "key": "q", "action": "release"}
  ]
}`
	path := filepath.Join(t.TempDir(), "greensleeves.song.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	s, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Greensleeves", s.Name)
	assert.Equal(t, 96.0, s.BPM)
	assert.Equal(t, int64(180), s.DurationMillis)
}

func TestParseFileNameFallsBackToStem(t *testing.T) {
	doc := `{"notes": [
		{"t": 0, "key": "q", "action": "press"},
		{"t": 100, "key": "q", "action": "release"}
	]}`
	path := filepath.Join(t.TempDir(), "untitled-waltz.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	s, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "untitled-waltz", s.Name)
}

func TestParseFileRecordsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))

	_, err := ParseFile(path)
	require.Error(t, err)
	pe, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Equal(t, path, pe.Path)
}

func TestEncodeRoundTrip(t *testing.T) {
	s, err := New("rt", 88, []Note{
		note(0, "shift+q", Press),
		note(120, "shift+q", Release),
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s))

	back, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, s.Name, back.Name)
	assert.Equal(t, s.BPM, back.BPM)
	assert.Equal(t, s.Notes, back.Notes)
	assert.Equal(t, s.DurationMillis, back.DurationMillis)
}
