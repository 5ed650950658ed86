// Package stats tracks run-time counters and renders a periodic progress
// line, grounded on the original's background Statistics ticker in
// io_handler.rs (termion clear/cursor escapes there, golang.org/x/term
// here to decide whether escapes are safe to emit at all).
package stats

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/term"
)

// Stats holds atomically-updated event and trigger counters plus the run's
// start time. Unlike the original, which increments the same num_events
// counter from both NewEvent and Trigger (spec.md flags this as likely a
// bug), EventCount and Trigger count are tracked independently.
type Stats struct {
	start        time.Time
	eventCount   atomic.Uint64
	triggerCount atomic.Uint64
}

// New starts a Stats with its clock zeroed at the current instant.
func New() *Stats {
	return &Stats{start: time.Now()}
}

// NewEvent records that one event-driven evaluation round completed.
func (s *Stats) NewEvent() {
	s.eventCount.Add(1)
}

// Trigger records that a trigger fired.
func (s *Stats) Trigger() {
	s.triggerCount.Add(1)
}

// EventCount returns the number of events processed so far.
func (s *Stats) EventCount() uint64 { return s.eventCount.Load() }

// TriggerCount returns the number of triggers fired so far.
func (s *Stats) TriggerCount() uint64 { return s.triggerCount.Load() }

// line formats one progress snapshot, spinChar prefixing it as the original
// does with its rotating spinner characters.
func (s *Stats) line(spinChar byte) string {
	events := s.eventCount.Load()
	triggers := s.triggerCount.Load()
	elapsed := time.Since(s.start)
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	var perSecond float64
	var nsPerEvent float64
	if events > 0 {
		perSecond = float64(events) / elapsed.Seconds()
		nsPerEvent = float64(elapsed.Nanoseconds()) / float64(events)
	}
	return fmt.Sprintf("%c %d events, %d triggers, %.1f events/sec, %.0f nsec/event",
		spinChar, events, triggers, perSecond, nsPerEvent)
}

var spinner = []byte{'|', '/', '-', '\\'}

// Ticker periodically renders a Stats snapshot to an io.Writer, clearing
// its previous line first when the writer is a terminal (golang.org/x/term
// stands in for the original's termion::{clear, cursor} dependency). When
// the writer is not a terminal (redirected to a file or pipe), lines are
// appended with a trailing newline instead of being overwritten in place.
type Ticker struct {
	stats    *Stats
	w        io.Writer
	interval time.Duration
	isTTY    bool
	stop     chan struct{}
	done     chan struct{}
}

// NewTicker builds a Ticker over stats, writing to w every interval.
func NewTicker(stats *Stats, w io.Writer, interval time.Duration) *Ticker {
	isTTY := false
	if f, ok := w.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return &Ticker{
		stats:    stats,
		w:        w,
		interval: interval,
		isTTY:    isTTY,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background rendering goroutine. Stop must be called
// to terminate it.
func (t *Ticker) Start() {
	go t.run()
}

func (t *Ticker) run() {
	defer close(t.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	spin := 0
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.render(spinner[spin%len(spinner)])
			spin++
		}
	}
}

func (t *Ticker) render(spinChar byte) {
	if t.isTTY {
		fmt.Fprint(t.w, "\r\033[K")
		fmt.Fprint(t.w, t.stats.line(spinChar))
	} else {
		fmt.Fprintln(t.w, t.stats.line(spinChar))
	}
}

// Stop halts the background goroutine and prints a final snapshot, mirroring
// the original's terminate(): clear the in-place line, then leave one last
// reading behind.
func (t *Ticker) Stop() {
	close(t.stop)
	<-t.done
	t.render(' ')
	if t.isTTY {
		fmt.Fprintln(t.w)
	}
}
