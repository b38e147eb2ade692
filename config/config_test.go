package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultTickMS, cfg.TickMS)
	assert.Equal(t, DefaultDispatchTimeoutMS, cfg.DispatchTimeoutMS)
	assert.Equal(t, DefaultGapMS, cfg.GapMS)
	assert.Equal(t, DefaultChordWindowMS, cfg.ChordWindowMS)
	assert.Equal(t, DefaultChordStepMS, cfg.ChordStepMS)
	assert.Equal(t, DefaultUinputDevice, cfg.UinputDevice)
	assert.NotEmpty(t, cfg.SongDir)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.SongDir = "/tmp/tunes"
	cfg.TickMS = 5
	cfg.GapMS = 1500
	cfg.Keymap = "/tmp/keys.yaml"
	require.NoError(t, cfg.SaveTo(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestZeroValuesFallBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "song_dir: /tmp/tunes\ntick_ms: 0\ngap_ms: 0\ndispatch_timeout_ms: -1\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/tunes", cfg.SongDir)
	assert.Equal(t, DefaultTickMS, cfg.TickMS)
	assert.Equal(t, DefaultGapMS, cfg.GapMS)
	assert.Equal(t, DefaultDispatchTimeoutMS, cfg.DispatchTimeoutMS)
}

func TestNegativeChordWindowDisablesRolling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "chord_window_ms: -1\nchord_step_ms: -1\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), cfg.ChordWindow())
	assert.Equal(t, time.Duration(0), cfg.ChordStep())
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 2*time.Millisecond, cfg.Tick())
	assert.Equal(t, 50*time.Millisecond, cfg.DispatchTimeout())
	assert.Equal(t, 5*time.Second, cfg.Gap())
	assert.Equal(t, 20*time.Millisecond, cfg.ChordWindow())
	assert.Equal(t, 5*time.Millisecond, cfg.ChordStep())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "songs"), ExpandHome("~/songs"))
	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "rel/path", ExpandHome("rel/path"))
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_ms: [oops"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
