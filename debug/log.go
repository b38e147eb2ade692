// Package debug routes the module's logging. Nothing in the core writes to
// stdout: the TUI owns the terminal, so logs go to a file in the config dir,
// or to stderr in verbose mode for headless runs.
package debug

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"windkeys/config"
)

var (
	mu       sync.Mutex
	file     *os.File
	counters = make(map[string]int)
)

// Setup installs the process-wide default logger. Verbose selects debug
// level on stderr; otherwise debug.log in the config dir, append mode,
// created lazily. With no usable config dir logging is discarded rather
// than failing the program.
func Setup(verbose bool) error {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		return nil
	}

	w, err := open()
	if err != nil {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, opts)))
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, opts)))
	return nil
}

// Writer exposes the debug log file for sinks that must not write to the
// terminal while the TUI owns it. Falls back to io.Discard when the log
// cannot be opened.
func Writer() io.Writer {
	w, err := open()
	if err != nil {
		return io.Discard
	}
	return w
}

// Close releases the log file, if one was opened.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

func open() (*os.File, error) {
	mu.Lock()
	defer mu.Unlock()

	if file != nil {
		return file, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	file = f
	return f, nil
}

// Every returns true on the first call for key and then once per n calls,
// for sampling high-frequency events.
func Every(key string, n int) bool {
	mu.Lock()
	defer mu.Unlock()

	if n <= 1 {
		return true
	}
	count := counters[key]
	counters[key] = count + 1
	return count%n == 0
}
