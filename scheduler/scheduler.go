// Package scheduler converts a song's note timeline into real-time key
// dispatches. A Scheduler owns one playback session at a time and runs a
// single loop goroutine; control calls (load, play, pause, seek, stop) are
// messages the loop consumes between dispatch batches, never inside one.
// Elapsed musical time is recomputed against an absolute reference on every
// tick, so a delayed tick catches up in one batch and timing error does not
// accumulate over a long song.
package scheduler

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"windkeys/dispatch"
	"windkeys/song"
)

// DefaultTick is the scheduling loop period.
const DefaultTick = 2 * time.Millisecond

type ctrlOp int

const (
	opLoad ctrlOp = iota
	opPlay
	opPause
	opToggle
	opSeek
	opStop
)

type ctrlMsg struct {
	op    ctrlOp
	sng   *song.Song
	ms    int64
	reply chan error
}

// Scheduler drives playback. Construct with New; it is live immediately and
// must be Closed to stop the loop and release any held keys. The underlying
// Dispatcher stays owned by the caller and is not closed.
type Scheduler struct {
	d       *dispatch.Tracked
	clk     clock.Clock
	tick    time.Duration
	timeout time.Duration
	log     *slog.Logger

	ctrl     chan ctrlMsg
	done     chan struct{}
	loopDone chan struct{}
	events   chan Event
	prog     atomic.Pointer[Progress]

	closeOnce sync.Once
}

// Option configures a Scheduler at construction.
type Option func(*Scheduler)

// WithClock substitutes the time source, for tests.
func WithClock(c clock.Clock) Option {
	return func(s *Scheduler) { s.clk = c }
}

// WithTick sets the scheduling loop period.
func WithTick(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithDispatchTimeout bounds each key action against a stalled sink.
func WithDispatchTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger routes the scheduler's log output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New wraps d in the timeout guard and held-key tracker and starts the loop.
func New(d dispatch.Dispatcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		clk:      clock.New(),
		tick:     DefaultTick,
		timeout:  dispatch.DefaultTimeout,
		log:      slog.Default(),
		ctrl:     make(chan ctrlMsg),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
		events:   make(chan Event, 32),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.d = dispatch.Track(dispatch.WithTimeout(d, s.timeout))
	s.prog.Store(&Progress{})

	go s.loop()
	return s
}

// Load replaces the current song, implicitly stopping active playback.
func (s *Scheduler) Load(sng *song.Song) error {
	return s.send(ctrlMsg{op: opLoad, sng: sng})
}

// Play starts the loaded song from the beginning, or resumes from a pause.
func (s *Scheduler) Play() error { return s.send(ctrlMsg{op: opPlay}) }

// Pause freezes the musical position without releasing held keys.
func (s *Scheduler) Pause() error { return s.send(ctrlMsg{op: opPause}) }

// TogglePause flips between Playing and Paused.
func (s *Scheduler) TogglePause() error { return s.send(ctrlMsg{op: opToggle}) }

// Seek jumps to the given musical position, clamped to the song bounds.
func (s *Scheduler) Seek(ms int64) error { return s.send(ctrlMsg{op: opSeek, ms: ms}) }

// Stop ends playback and releases held keys. Stopping twice is a no-op.
func (s *Scheduler) Stop() error { return s.send(ctrlMsg{op: opStop}) }

// Progress returns the latest published snapshot without blocking the loop.
func (s *Scheduler) Progress() Progress { return *s.prog.Load() }

// Events exposes the playback event stream. The channel is never closed
// while the scheduler lives; a full buffer drops events.
func (s *Scheduler) Events() <-chan Event { return s.events }

// Close stops the loop, releasing any held keys first.
func (s *Scheduler) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		<-s.loopDone
	})
	return nil
}

func (s *Scheduler) send(m ctrlMsg) error {
	m.reply = make(chan error, 1)
	// ctrl is unbuffered: once the handoff succeeds the loop is inside the
	// ctrl arm and always replies.
	select {
	case s.ctrl <- m:
		return <-m.reply
	case <-s.done:
		return ErrClosed
	}
}

func (s *Scheduler) loop() {
	defer close(s.loopDone)

	eng := newEngine(s.d)
	ticker := s.clk.Ticker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			s.emit(eng.stop(s.clk.Now()))
			s.publish(eng)
			return
		case m := <-s.ctrl:
			err := s.apply(eng, m)
			s.publish(eng)
			m.reply <- err
		case <-ticker.C:
			s.emit(eng.advance(s.clk.Now()))
			s.publish(eng)
		}
	}
}

func (s *Scheduler) apply(eng *engine, m ctrlMsg) error {
	now := s.clk.Now()
	var evs []Event
	var err error
	switch m.op {
	case opLoad:
		evs = eng.load(m.sng, now)
	case opPlay:
		evs, err = eng.play(now)
	case opPause:
		evs, err = eng.pause(now)
	case opToggle:
		evs, err = eng.toggle(now)
	case opSeek:
		evs, err = eng.seek(m.ms, now)
	case opStop:
		evs = eng.stop(now)
	}
	s.emit(evs)
	return err
}

func (s *Scheduler) publish(eng *engine) {
	p := eng.progress(s.clk.Now())
	s.prog.Store(&p)
}

func (s *Scheduler) emit(evs []Event) {
	for _, ev := range evs {
		if ev.Kind == EventDispatchError {
			s.log.Warn("dispatch failed", "session", ev.Session, "song", ev.Song, "at_ms", ev.At, "error", ev.Err)
		} else {
			s.log.Debug("playback "+ev.Kind.String(), "session", ev.Session, "song", ev.Song, "at_ms", ev.At)
		}
		select {
		case s.events <- ev:
		default:
		}
	}
}
