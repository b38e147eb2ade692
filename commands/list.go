package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"windkeys/playlist"
	"windkeys/widgets"
)

var (
	listSort string
	listDesc bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the playlist",
	Long: `Print the playlist in its stored order, or sorted with --sort.
Sorting is a view: the stored order never changes. Missing files are
marked with !.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}

		entries := store.Entries()
		if listSort != "" {
			col, ok := map[string]playlist.Column{
				"name":     playlist.ByName,
				"duration": playlist.ByDuration,
				"bpm":      playlist.ByBPM,
			}[listSort]
			if !ok {
				return fmt.Errorf("unknown sort column %q (name, duration or bpm)", listSort)
			}
			dir := playlist.Ascending
			if listDesc {
				dir = playlist.Descending
			}
			entries = store.SortedView(col, dir)
		}

		for i, e := range entries {
			flag := " "
			if e.Missing {
				flag = "!"
			}
			name := e.Name
			if name == "" {
				name = e.Ref
			}
			bpm := ""
			if e.BPM > 0 {
				bpm = fmt.Sprintf("%.0f", e.BPM)
			}
			fmt.Printf("%3d %s %-34s %8s %5s  %s\n",
				i+1, flag, name, widgets.Clock(e.DurationMillis), bpm, e.Ref)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listSort, "sort", "", "sort view: name, duration or bpm")
	listCmd.Flags().BoolVar(&listDesc, "desc", false, "sort descending")
	rootCmd.AddCommand(listCmd)
}
