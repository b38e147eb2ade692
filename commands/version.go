package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// version is stamped by the release build.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("windkeys %s\n", version)
		if verbose {
			fmt.Printf("  go: %s\n", runtime.Version())
			if cfg, err := getConfig(); err == nil {
				fmt.Printf("  song_dir: %s\n", cfg.SongDir)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
