// Package main is the entry point for the windkeys player.
//
// Usage:
//
//	windkeys [flags] [command]
//
// Commands:
//
//	(none)     - open the player UI
//	play       - headless playback of songs or the whole playlist
//	import     - convert MIDI files to song documents
//	list       - print the playlist
//	add        - add songs to the playlist
//	remove     - remove a song from the playlist
//	move       - reorder the playlist
//	keymap     - print the pitch/key table, optionally probing the sink
//	version    - show version information
package main

import (
	"fmt"
	"os"

	"windkeys/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
