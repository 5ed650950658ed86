// Package storage implements the per-stream ring buffer described in
// spec.md §3/§4.2: each stream's StorageCell retains the last `capacity`
// written values (capacity derived from its MemorizationBound), supporting
// synchronous read, discrete-offset read, real-time sample-and-hold, and
// plain sample-and-hold.
package storage

import (
	"time"

	"github.com/lola-rv/monitor/pkg/ir"
	"github.com/lola-rv/monitor/pkg/value"
)

type entry struct {
	tick int64
	at   time.Time
	val  value.Value
}

// Cell is a ring buffer for one stream. Bounded cells allocate their
// capacity once; Unbounded cells grow on demand (spec.md §3).
type Cell struct {
	bound ir.MemorizationBound
	buf   []entry
	cap   int
	count int64 // total writes ever made to this cell
}

// NewCell allocates a Cell sized exactly to bound, per spec.md §4.2: the
// engine must honor the memorization bound exactly.
func NewCell(bound ir.MemorizationBound) *Cell {
	c := &Cell{bound: bound}
	if bound.IsBounded() {
		c.cap = bound.N
		c.buf = make([]entry, 0, c.cap)
	}
	return c
}

// Write appends a value at discrete index `tick` and wall/event time `at`,
// overwriting the oldest slot once a bounded cell is full.
func (c *Cell) Write(tick int64, at time.Time, v value.Value) {
	e := entry{tick: tick, at: at, val: v}
	if c.bound.Unbounded {
		c.buf = append(c.buf, e)
	} else if len(c.buf) < c.cap {
		c.buf = append(c.buf, e)
	} else {
		c.buf[int(c.count%int64(c.cap))] = e
	}
	c.count++
}

func (c *Cell) latest() (entry, bool) {
	if c.count == 0 {
		return entry{}, false
	}
	if c.bound.Unbounded {
		return c.buf[len(c.buf)-1], true
	}
	return c.buf[int((c.count-1)%int64(c.cap))], true
}

// ReadSync returns the value written at discrete index `tick`, or
// (_, false) if this cell's latest write is not from that tick, i.e. the
// stream's activation did not fire this tick (spec.md §4.2).
func (c *Cell) ReadSync(tick int64) (value.Value, bool) {
	last, ok := c.latest()
	if !ok || last.tick != tick {
		return value.Value{}, false
	}
	return last.val, true
}

// ReadOffset returns the value written k writes before the most recent
// write (k=0 is the latest write), or (_, false) if k is negative, exceeds
// the number of writes made so far, or exceeds capacity (spec.md §4.2, P5).
func (c *Cell) ReadOffset(k int) (value.Value, bool) {
	if k < 0 || int64(k) >= c.count {
		return value.Value{}, false
	}
	if !c.bound.Unbounded && k >= c.cap {
		return value.Value{}, false
	}
	if c.bound.Unbounded {
		idx := len(c.buf) - 1 - k
		return c.buf[idx].val, true
	}
	idx := int((c.count - 1 - int64(k)) % int64(c.cap))
	if idx < 0 {
		idx += c.cap
	}
	return c.buf[idx].val, true
}

// SampleAndHold returns the most recent value ever written, or (_, false)
// if the cell has never been written.
func (c *Cell) SampleAndHold() (value.Value, bool) {
	last, ok := c.latest()
	if !ok {
		return value.Value{}, false
	}
	return last.val, true
}

// SampleAndHoldAt returns the most recent value written at or before wall
// time t, the real-time-offset variant of sample-and-hold (spec.md
// §4.3's OffsetLookup with a real-time offset consults this at now-d).
// The scan runs backward from the newest entry, which is cheap because
// every cell holds at most its memorization bound's worth of history.
func (c *Cell) SampleAndHoldAt(t time.Time) (value.Value, bool) {
	n := len(c.buf)
	for i := 0; i < n; i++ {
		var idx int
		if c.bound.Unbounded {
			idx = n - 1 - i
		} else {
			idx = int((c.count - 1 - int64(i)) % int64(c.cap))
			if idx < 0 {
				idx += c.cap
			}
		}
		e := c.buf[idx]
		if !e.at.After(t) {
			return e.val, true
		}
	}
	return value.Value{}, false
}

// Len reports how many writes are currently retained (<= capacity for a
// bounded cell).
func (c *Cell) Len() int { return len(c.buf) }
