package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"windkeys/config"
	"windkeys/debug"
	"windkeys/dispatch"
	"windkeys/keymap"
	"windkeys/library"
	"windkeys/playlist"
	"windkeys/scheduler"
	"windkeys/song"
	"windkeys/theme"
	"windkeys/tui"
)

var (
	// Global flags
	configPath string
	dryRun     bool
	verbose    bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "windkeys",
	Short: "Plays songs on a virtual keyboard",
	Long: `windkeys performs songs by injecting timed key presses through a
virtual uinput keyboard, driving games and instruments that map keys
to notes.

Songs are JSON documents of timed press/release actions. MIDI files
can be converted with 'windkeys import'. The playlist keeps its order
in the config directory:

  ~/.config/windkeys/

Running windkeys with no arguments opens the player UI. Use --dry-run
anywhere to echo key actions instead of injecting them (no /dev/uinput
access needed).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

// Execute runs the root command.
func Execute() error {
	defer debug.Close()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/windkeys/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "echo key actions instead of injecting them")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")
}

// configLoadErr stores the error from config.Load for deferred reporting,
// so commands that never touch the config still run.
var configLoadErr error

func initConfig() {
	if err := debug.Setup(verbose); err != nil {
		fmt.Fprintf(os.Stderr, "warning: debug log unavailable: %v\n", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

func getConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

func runTUI() error {
	cfg, err := getConfig()
	if err != nil {
		return err
	}

	// First run: write the defaults so users have a file to edit.
	if configPath == "" {
		if path, perr := config.Path(); perr == nil {
			if _, serr := os.Stat(path); os.IsNotExist(serr) {
				if werr := cfg.Save(); werr != nil {
					slog.Warn("could not write default config", "error", werr)
				}
			}
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	sink, err := newSink(cfg, debug.Writer())
	if err != nil {
		return err
	}
	defer sink.Close()

	sched := scheduler.New(sink,
		scheduler.WithTick(cfg.Tick()),
		scheduler.WithDispatchTimeout(cfg.DispatchTimeout()),
	)
	defer sched.Close()

	m := tui.NewModel(sched, store, newLoader(cfg), loadTheme(cfg), cfg.Gap())
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// newSink builds the key sink: the uinput keyboard, or an echo writer
// under --dry-run. echoTo is where dry-run lines go; headless commands
// pass stdout, the TUI passes the debug log.
func newSink(cfg *config.Config, echoTo io.Writer) (dispatch.Dispatcher, error) {
	if dryRun {
		return dispatch.NewEcho(echoTo), nil
	}
	kb, err := dispatch.NewKeyboard(cfg.UinputDevice)
	if err != nil {
		return nil, fmt.Errorf("open %s (need uinput access, or use --dry-run): %w", cfg.UinputDevice, err)
	}
	return kb, nil
}

func openStore(cfg *config.Config) (*playlist.Store, error) {
	path, err := cfg.PlaylistPath()
	if err != nil {
		return nil, err
	}
	return playlist.Open(path)
}

func loadKeymap(cfg *config.Config) *keymap.Map {
	if cfg.Keymap == "" {
		return keymap.Default()
	}
	km, err := keymap.Load(config.ExpandHome(cfg.Keymap))
	if err != nil {
		slog.Warn("keymap load failed, using defaults", "path", cfg.Keymap, "error", err)
		return keymap.Default()
	}
	return km
}

func newLoader(cfg *config.Config) *library.Loader {
	var cache *song.Cache
	if dir, err := config.CachePath(); err == nil {
		cache = song.NewCache(dir)
	}
	return &library.Loader{
		Keymap:      loadKeymap(cfg),
		Cache:       cache,
		ChordWindow: cfg.ChordWindow(),
		ChordStep:   cfg.ChordStep(),
	}
}

func loadTheme(cfg *config.Config) *theme.Theme {
	if cfg.Palette == "" {
		return theme.New(theme.Nord())
	}
	p, err := theme.LoadGPL(config.ExpandHome(cfg.Palette))
	if err != nil {
		slog.Warn("palette load failed, using built-in", "path", cfg.Palette, "error", err)
		return theme.New(theme.Nord())
	}
	return theme.New(p)
}
