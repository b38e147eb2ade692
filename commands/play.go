package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"windkeys/config"
	"windkeys/scheduler"
	"windkeys/widgets"
)

var playAll bool

var playCmd = &cobra.Command{
	Use:   "play <ref>...",
	Short: "Play songs without the UI",
	Long: `Play the given song files in order, with the configured gap of
silence between them. With --all the whole playlist plays instead.
Ctrl-C stops cleanly, releasing any held keys.

Examples:
  windkeys play ~/songs/minuet.json
  windkeys play --all --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}

		refs := args
		if playAll {
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			refs = refs[:0]
			for _, e := range store.Entries() {
				if e.Missing {
					fmt.Fprintf(os.Stderr, "skipping missing %s\n", e.Ref)
					continue
				}
				refs = append(refs, e.Ref)
			}
		}
		if len(refs) == 0 {
			return fmt.Errorf("nothing to play: give song files or --all")
		}
		return playRefs(cfg, refs)
	},
}

func init() {
	playCmd.Flags().BoolVar(&playAll, "all", false, "play the whole playlist")
	rootCmd.AddCommand(playCmd)
}

func playRefs(cfg *config.Config, refs []string) error {
	loader := newLoader(cfg)

	sink, err := newSink(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer sink.Close()

	sched := scheduler.New(sink,
		scheduler.WithTick(cfg.Tick()),
		scheduler.WithDispatchTimeout(cfg.DispatchTimeout()),
	)
	defer sched.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	events := sched.Events()
	for i, ref := range refs {
		sng, err := loader.Load(config.ExpandHome(ref))
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", ref, err)
			continue
		}
		if err := sched.Load(sng); err != nil {
			return err
		}
		if err := sched.Play(); err != nil {
			return err
		}
		session := sched.Progress().SessionID
		fmt.Printf("playing %s (%s)\n", sng.Name, widgets.Clock(sng.DurationMillis))

	wait:
		for {
			select {
			case ev := <-events:
				// a stale finish from an earlier session must not end this one
				if ev.Kind == scheduler.EventFinished && ev.Session == session {
					break wait
				}
				if ev.Kind == scheduler.EventDispatchError {
					fmt.Fprintf(os.Stderr, "dispatch: %v\n", ev.Err)
				}
			case <-sigCh:
				fmt.Println("stopped")
				return sched.Stop()
			case <-time.After(200 * time.Millisecond):
				// the event buffer drops under pressure; the poll
				// catches a missed finish
				if sched.Progress().State == scheduler.Stopped {
					break wait
				}
			}
		}

		if i < len(refs)-1 {
			select {
			case <-time.After(cfg.Gap()):
			case <-sigCh:
				return nil
			}
		}
	}
	return nil
}
