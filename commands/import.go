package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"windkeys/config"
	"windkeys/midifile"
	"windkeys/song"
	"windkeys/widgets"
)

var (
	importOut  string
	importName string
)

var importCmd = &cobra.Command{
	Use:   "import <file.mid>...",
	Short: "Convert MIDI files to song documents",
	Long: `Convert standard MIDI files into playable song documents, mapping
pitches through the keymap. The piece is transposed so it fits the
playable window (notes too deep to fit are dropped), and chords are
rolled by the configured stagger.

Each input produces <name>.json in the song directory (or --out).
A failed file is reported and the rest of the batch continues.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if importName != "" && len(args) > 1 {
			return fmt.Errorf("--name needs a single input file")
		}

		outDir := importOut
		if outDir == "" {
			outDir = config.ExpandHome(cfg.SongDir)
		}
		if err := os.MkdirAll(outDir, 0755); err != nil {
			return err
		}

		km := loadKeymap(cfg)
		failed := 0
		for _, path := range args {
			sng, err := midifile.Import(path, km,
				midifile.WithChordRoll(cfg.ChordWindow(), cfg.ChordStep()))
			if err == nil && importName != "" {
				sng, err = song.New(importName, sng.BPM, sng.Notes)
			}
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "import %s: %v\n", path, err)
				continue
			}

			out := filepath.Join(outDir, song.Stem(path)+".json")
			if err := writeSong(out, sng); err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "write %s: %v\n", out, err)
				continue
			}
			fmt.Printf("imported %s -> %s (%d notes, %s)\n",
				path, out, len(sng.Notes), widgets.Clock(sng.DurationMillis))
		}
		if failed == len(args) {
			return fmt.Errorf("all %d imports failed", failed)
		}
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importOut, "out", "", "output directory (default the configured song_dir)")
	importCmd.Flags().StringVar(&importName, "name", "", "song name override (single file only)")
	rootCmd.AddCommand(importCmd)
}

func writeSong(path string, s *song.Song) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := song.Encode(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
