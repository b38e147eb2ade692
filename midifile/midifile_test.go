package midifile

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windkeys/keymap"
	"windkeys/song"
)

// smfTrack accumulates raw track events so tests control the exact bytes
// the importer sees.
type smfTrack struct {
	buf bytes.Buffer
}

func vlq(v uint32) []byte {
	out := []byte{byte(v & 0x7f)}
	v >>= 7
	for v > 0 {
		out = append([]byte{byte(v&0x7f | 0x80)}, out...)
		v >>= 7
	}
	return out
}

func (tr *smfTrack) event(delta uint32, data ...byte) {
	tr.buf.Write(vlq(delta))
	tr.buf.Write(data)
}

func (tr *smfTrack) noteOn(delta uint32, pitch, vel byte) {
	tr.event(delta, 0x90, pitch, vel)
}

func (tr *smfTrack) noteOff(delta uint32, pitch byte) {
	tr.event(delta, 0x80, pitch, 0)
}

func (tr *smfTrack) tempo(delta uint32, usPerQuarter uint32) {
	tr.event(delta, 0xff, 0x51, 0x03,
		byte(usPerQuarter>>16), byte(usPerQuarter>>8), byte(usPerQuarter))
}

func (tr *smfTrack) trackName(delta uint32, name string) {
	data := append([]byte{0xff, 0x03, byte(len(name))}, name...)
	tr.event(delta, data...)
}

func buildSMF(t *testing.T, division uint16, tracks ...*smfTrack) string {
	t.Helper()

	var f bytes.Buffer
	f.WriteString("MThd")
	binary.Write(&f, binary.BigEndian, uint32(6))
	binary.Write(&f, binary.BigEndian, uint16(1))
	binary.Write(&f, binary.BigEndian, uint16(len(tracks)))
	binary.Write(&f, binary.BigEndian, division)
	for _, tr := range tracks {
		tr.event(0, 0xff, 0x2f, 0x00) // end of track
		f.WriteString("MTrk")
		binary.Write(&f, binary.BigEndian, uint32(tr.buf.Len()))
		f.Write(tr.buf.Bytes())
	}

	path := filepath.Join(t.TempDir(), "test.mid")
	require.NoError(t, os.WriteFile(path, f.Bytes(), 0644))
	return path
}

// 480 ticks per quarter at 120 bpm: one quarter = 500 ms.
const division = 480

func TestImportBasic(t *testing.T) {
	tr := &smfTrack{}
	tr.trackName(0, "Test Song")
	tr.tempo(0, 500000)
	tr.noteOn(0, 83, 100)
	tr.noteOff(480, 83)
	tr.noteOn(0, 81, 100)
	tr.noteOff(480, 81)
	path := buildSMF(t, division, tr)

	s, err := Import(path, keymap.Default())
	require.NoError(t, err)

	assert.Equal(t, "Test Song", s.Name)
	assert.Equal(t, 120.0, s.BPM)
	assert.Equal(t, int64(1000), s.DurationMillis)
	want := []song.Note{
		{OffsetMillis: 0, Key: "u", Action: song.Press},
		{OffsetMillis: 500, Key: "u", Action: song.Release},
		{OffsetMillis: 500, Key: "y", Action: song.Press},
		{OffsetMillis: 1000, Key: "y", Action: song.Release},
	}
	assert.Equal(t, want, s.Notes)
}

func TestImportNameFallsBackToStem(t *testing.T) {
	tr := &smfTrack{}
	tr.noteOn(0, 83, 100)
	tr.noteOff(480, 83)
	path := buildSMF(t, division, tr)

	s, err := Import(path, keymap.Default())
	require.NoError(t, err)
	assert.Equal(t, "test", s.Name)

	s, err = Import(path, keymap.Default(), WithName("Renamed"))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", s.Name)
}

func TestImportTransposesIntoWindow(t *testing.T) {
	tr := &smfTrack{}
	tr.noteOn(0, 90, 100) // -> 83 "u"
	tr.noteOff(480, 90)
	tr.noteOn(0, 85, 100) // -> 78 "shift+r"
	tr.noteOff(480, 85)
	tr.noteOn(0, 40, 100) // -> 33, below the window: dropped
	tr.noteOff(480, 40)
	path := buildSMF(t, division, tr)

	s, err := Import(path, keymap.Default())
	require.NoError(t, err)

	keys := map[string]bool{}
	for _, n := range s.Notes {
		keys[n.Key] = true
	}
	assert.Equal(t, map[string]bool{"u": true, "shift+r": true}, keys)
	assert.Len(t, s.Notes, 4)
}

func TestImportVelocityZeroIsNoteOff(t *testing.T) {
	tr := &smfTrack{}
	tr.noteOn(0, 83, 100)
	tr.noteOn(480, 83, 0)
	path := buildSMF(t, division, tr)

	s, err := Import(path, keymap.Default())
	require.NoError(t, err)
	want := []song.Note{
		{OffsetMillis: 0, Key: "u", Action: song.Press},
		{OffsetMillis: 500, Key: "u", Action: song.Release},
	}
	assert.Equal(t, want, s.Notes)
}

func TestImportRollsChords(t *testing.T) {
	tr := &smfTrack{}
	tr.noteOn(0, 83, 100)
	tr.noteOn(0, 81, 100)
	tr.noteOn(0, 79, 100)
	tr.noteOff(960, 83)
	tr.noteOff(0, 81)
	tr.noteOff(0, 79)
	path := buildSMF(t, division, tr)

	s, err := Import(path, keymap.Default())
	require.NoError(t, err)

	var presses []song.Note
	for _, n := range s.Notes {
		if n.Action == song.Press {
			presses = append(presses, n)
		}
	}
	want := []song.Note{
		{OffsetMillis: 0, Key: "u", Action: song.Press},
		{OffsetMillis: 5, Key: "y", Action: song.Press},
		{OffsetMillis: 10, Key: "t", Action: song.Press},
	}
	assert.Equal(t, want, presses)

	// durations survive the roll
	assert.Equal(t, int64(1010), s.DurationMillis)
}

func TestImportChordRollDisabled(t *testing.T) {
	tr := &smfTrack{}
	tr.noteOn(0, 83, 100)
	tr.noteOn(0, 81, 100)
	tr.noteOff(960, 83)
	tr.noteOff(0, 81)
	path := buildSMF(t, division, tr)

	s, err := Import(path, keymap.Default(), WithChordRoll(0, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.Notes[0].OffsetMillis)
	assert.Equal(t, int64(0), s.Notes[1].OffsetMillis)
}

func TestImportTempoChange(t *testing.T) {
	tr := &smfTrack{}
	tr.tempo(0, 500000)
	tr.noteOn(0, 83, 100)
	tr.tempo(480, 250000) // after one quarter, double speed
	tr.noteOff(480, 83)
	path := buildSMF(t, division, tr)

	s, err := Import(path, keymap.Default())
	require.NoError(t, err)
	// 480 ticks at 500000 = 500 ms, then 480 ticks at 250000 = 250 ms
	assert.Equal(t, int64(750), s.DurationMillis)
	assert.Equal(t, 120.0, s.BPM)
}

func TestImportClosesDanglingNoteAtFileEnd(t *testing.T) {
	tr := &smfTrack{}
	tr.noteOn(0, 83, 100)
	tr.event(960, 0xb0, 0x40, 0x00) // sustain off, just to move the end time
	path := buildSMF(t, division, tr)

	s, err := Import(path, keymap.Default())
	require.NoError(t, err)
	want := []song.Note{
		{OffsetMillis: 0, Key: "u", Action: song.Press},
		{OffsetMillis: 1000, Key: "u", Action: song.Release},
	}
	assert.Equal(t, want, s.Notes)
}

func TestImportRepressWhileOpen(t *testing.T) {
	tr := &smfTrack{}
	tr.noteOn(0, 83, 100)
	tr.noteOn(480, 83, 100) // same pitch again while held
	tr.noteOff(480, 83)
	path := buildSMF(t, division, tr)

	s, err := Import(path, keymap.Default())
	require.NoError(t, err)
	want := []song.Note{
		{OffsetMillis: 0, Key: "u", Action: song.Press},
		{OffsetMillis: 500, Key: "u", Action: song.Release},
		{OffsetMillis: 500, Key: "u", Action: song.Press},
		{OffsetMillis: 1000, Key: "u", Action: song.Release},
	}
	assert.Equal(t, want, s.Notes)
}

func TestImportCollapsesSharedComboOverlap(t *testing.T) {
	// force two pitches onto one combo via an override map
	doc := "keys:\n  82: m\n  83: m\n"
	kmPath := filepath.Join(t.TempDir(), "km.yaml")
	require.NoError(t, os.WriteFile(kmPath, []byte(doc), 0644))
	km, err := keymap.Load(kmPath)
	require.NoError(t, err)

	tr := &smfTrack{}
	tr.noteOn(0, 83, 100)  // "m", held to 1000
	tr.noteOn(480, 82, 100) // also "m", overlapping
	tr.noteOff(480, 83)
	tr.noteOff(480, 82)
	path := buildSMF(t, division, tr)

	s, err := Import(path, km, WithChordRoll(0, 0))
	require.NoError(t, err)
	want := []song.Note{
		{OffsetMillis: 0, Key: "m", Action: song.Press},
		{OffsetMillis: 500, Key: "m", Action: song.Release},
		{OffsetMillis: 500, Key: "m", Action: song.Press},
		{OffsetMillis: 1000, Key: "m", Action: song.Release},
	}
	assert.Equal(t, want, s.Notes)
}

func TestImportNoNotes(t *testing.T) {
	tr := &smfTrack{}
	tr.tempo(0, 500000)
	path := buildSMF(t, division, tr)

	_, err := Import(path, keymap.Default())
	require.Error(t, err)
	pe, ok := err.(*song.ParseError)
	require.True(t, ok)
	assert.Equal(t, song.EmptySong, pe.Kind)
	assert.Equal(t, path, pe.Path)
}

func TestImportMissingFile(t *testing.T) {
	_, err := Import(filepath.Join(t.TempDir(), "nope.mid"), keymap.Default())
	require.Error(t, err)
	pe, ok := err.(*song.ParseError)
	require.True(t, ok)
	assert.Equal(t, song.BadDocument, pe.Kind)
}

func TestTempoMapDefaults(t *testing.T) {
	tm := newTempoMap(nil)
	assert.Equal(t, 120.0, tm.bpm())
	assert.InDelta(t, 500.0, tm.msAt(480, 480), 0.001)

	// a late first change is preceded by the midi default tempo
	tm = newTempoMap([]tempoChange{{tick: 480, usPerQuarter: 250000}})
	assert.InDelta(t, 500.0, tm.msAt(480, 480), 0.001)
	assert.InDelta(t, 750.0, tm.msAt(960, 480), 0.001)
}

func TestRollChordsKeepsDurations(t *testing.T) {
	spans := []span{
		{onMs: 0, offMs: 100, key: "q"},
		{onMs: 18, offMs: 118, key: "w"}, // inside the 20ms window
		{onMs: 50, offMs: 150, key: "e"}, // outside
	}
	rollChords(spans, 20, 5)

	assert.Equal(t, 0.0, spans[0].onMs)
	assert.Equal(t, 5.0, spans[1].onMs)
	assert.Equal(t, 105.0, spans[1].offMs)
	assert.Equal(t, 50.0, spans[2].onMs)
}

func TestWithChordRollUnits(t *testing.T) {
	o := options{}
	WithChordRoll(20*time.Millisecond, 5*time.Millisecond)(&o)
	assert.Equal(t, 20.0, o.chordWindow)
	assert.Equal(t, 5.0, o.chordStep)
}
