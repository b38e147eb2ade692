// Package config holds the operator configuration, a YAML file in the user
// config dir. Every field has a default; zero values in the file fall back
// to it, so a partial or absent file always yields a usable config.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

const (
	DefaultTickMS            = 2
	DefaultDispatchTimeoutMS = 50
	DefaultGapMS             = 5000
	DefaultChordWindowMS     = 20
	DefaultChordStepMS       = 5
	DefaultUinputDevice      = "/dev/uinput"
)

// Config is the on-disk configuration. Paths may start with ~/ .
type Config struct {
	SongDir           string `yaml:"song_dir"`
	Playlist          string `yaml:"playlist,omitempty"`
	Keymap            string `yaml:"keymap,omitempty"`
	Palette           string `yaml:"palette,omitempty"`
	TickMS            int    `yaml:"tick_ms"`
	DispatchTimeoutMS int    `yaml:"dispatch_timeout_ms"`
	GapMS             int    `yaml:"gap_ms"`
	ChordWindowMS     int    `yaml:"chord_window_ms"`
	ChordStepMS       int    `yaml:"chord_step_ms"`
	UinputDevice      string `yaml:"uinput_device"`
}

// Default returns a config with every field at its default.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		SongDir:           filepath.Join(home, "songs"),
		TickMS:            DefaultTickMS,
		DispatchTimeoutMS: DefaultDispatchTimeoutMS,
		GapMS:             DefaultGapMS,
		ChordWindowMS:     DefaultChordWindowMS,
		ChordStepMS:       DefaultChordStepMS,
		UinputDevice:      DefaultUinputDevice,
	}
}

// Dir returns the config directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "windkeys"), nil
}

// Path returns the full path to config.yaml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config at path, or the default location when path is
// empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes the config to the default location.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating the directory if needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.SongDir == "" {
		c.SongDir = d.SongDir
	}
	if c.TickMS <= 0 {
		c.TickMS = DefaultTickMS
	}
	if c.DispatchTimeoutMS <= 0 {
		c.DispatchTimeoutMS = DefaultDispatchTimeoutMS
	}
	if c.GapMS <= 0 {
		c.GapMS = DefaultGapMS
	}
	if c.ChordWindowMS == 0 {
		c.ChordWindowMS = DefaultChordWindowMS
	}
	if c.ChordStepMS == 0 {
		c.ChordStepMS = DefaultChordStepMS
	}
	if c.UinputDevice == "" {
		c.UinputDevice = DefaultUinputDevice
	}
}

// PlaylistPath resolves the playlist file location.
func (c *Config) PlaylistPath() (string, error) {
	if c.Playlist != "" {
		return ExpandHome(c.Playlist), nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "playlist.json"), nil
}

// CachePath is where compiled MIDI imports live.
func CachePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache"), nil
}

// Tick is the scheduler loop period.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}

// DispatchTimeout bounds a single key action.
func (c *Config) DispatchTimeout() time.Duration {
	return time.Duration(c.DispatchTimeoutMS) * time.Millisecond
}

// Gap is the silence between playlist songs.
func (c *Config) Gap() time.Duration {
	return time.Duration(c.GapMS) * time.Millisecond
}

// ChordWindow is the chord detection window for MIDI import. A negative
// chord_window_ms disables rolling.
func (c *Config) ChordWindow() time.Duration {
	if c.ChordWindowMS < 0 {
		return 0
	}
	return time.Duration(c.ChordWindowMS) * time.Millisecond
}

// ChordStep is the stagger between rolled chord notes.
func (c *Config) ChordStep() time.Duration {
	if c.ChordStepMS < 0 {
		return 0
	}
	return time.Duration(c.ChordStepMS) * time.Millisecond
}

// ExpandHome resolves a leading ~ against the user home dir.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
