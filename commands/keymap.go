package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var probeKeys bool

var keymapCmd = &cobra.Command{
	Use:   "keymap",
	Short: "Print the pitch to key table",
	Long: `Print every playable pitch with its note name and the key combo it
dispatches. With --probe each combo is tapped once through the key
sink with a short delay, to verify the device end to end (focus a
text field first, or use --dry-run).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		km := loadKeymap(cfg)

		for _, p := range km.Pitches() {
			combo, _ := km.Key(p)
			fmt.Printf("%3d  %-4s %s\n", p, noteName(p), combo)
		}
		if !probeKeys {
			return nil
		}

		sink, err := newSink(cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer sink.Close()

		fmt.Println("probing...")
		for _, p := range km.Pitches() {
			combo, _ := km.Key(p)
			if err := sink.Press(combo); err != nil {
				return err
			}
			time.Sleep(40 * time.Millisecond)
			if err := sink.Release(combo); err != nil {
				return err
			}
			time.Sleep(40 * time.Millisecond)
		}
		return nil
	},
}

func init() {
	keymapCmd.Flags().BoolVar(&probeKeys, "probe", false, "tap every key through the sink")
	rootCmd.AddCommand(keymapCmd)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteName renders a MIDI pitch like C4 (60 is middle C).
func noteName(pitch uint8) string {
	return fmt.Sprintf("%s%d", noteNames[pitch%12], int(pitch)/12-1)
}
