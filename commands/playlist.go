package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"windkeys/config"
	"windkeys/playlist"
	"windkeys/song"
)

var addCmd = &cobra.Command{
	Use:   "add <ref>...",
	Short: "Add songs to the playlist",
	Long: `Add song files to the end of the playlist. Each file is loaded once
for its name, duration and BPM; files that do not exist are added
anyway and flagged as missing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		loader := newLoader(cfg)

		failed := 0
		for _, raw := range args {
			ref := config.ExpandHome(raw)
			e := playlist.Entry{Ref: ref, Name: song.Stem(ref)}

			if _, statErr := os.Stat(ref); statErr != nil {
				e.Missing = true
				fmt.Fprintf(os.Stderr, "warning: %s does not exist, added as missing\n", ref)
			} else {
				sng, err := loader.Load(ref)
				if err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "add %s: %v\n", ref, err)
					continue
				}
				e.Name = sng.Name
				e.DurationMillis = sng.DurationMillis
				e.BPM = sng.BPM
			}

			if err := store.Add(e); err != nil {
				if errors.Is(err, playlist.ErrDuplicate) {
					fmt.Fprintf(os.Stderr, "already in playlist: %s\n", ref)
					continue
				}
				return err
			}
			fmt.Printf("added %s\n", e.Name)
		}
		if failed == len(args) {
			return fmt.Errorf("nothing added")
		}
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <ref>",
	Short: "Remove a song from the playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		ref := config.ExpandHome(args[0])
		if err := store.Remove(ref); err != nil {
			return fmt.Errorf("remove %s: %w", ref, err)
		}
		fmt.Printf("removed %s\n", ref)
		return nil
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <ref> <position>",
	Short: "Move a playlist entry to a position",
	Long: `Move an entry to the given 1-based position, as shown by
'windkeys list'. Positions past either end clamp.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		pos, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("position must be a number: %q", args[1])
		}
		ref := config.ExpandHome(args[0])
		if err := store.MoveTo(ref, pos-1); err != nil {
			return fmt.Errorf("move %s: %w", ref, err)
		}
		fmt.Printf("moved %s to %d\n", ref, pos)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(moveCmd)
}
