package schedule

import (
	"time"

	"github.com/lola-rv/monitor/pkg/ir"
)

// Driver consumes a Schedule and produces a monotonically increasing
// sequence of absolute due-times with the stream set to evaluate at each,
// per spec.md §4.5.
type Driver struct {
	sched   *Schedule
	cursor  int
	nextDue time.Time
}

// NewDriver initializes nextDue to start + deadlines[0].pause.
func NewDriver(sched *Schedule, start time.Time) *Driver {
	d := &Driver{sched: sched}
	if d.Active() {
		d.nextDue = start.Add(sched.Deadlines[0].Pause)
	}
	return d
}

// Active reports whether this module has any time-driven streams at all.
func (d *Driver) Active() bool {
	return d.sched != nil && len(d.sched.Deadlines) > 0
}

// Peek returns the next absolute due time and the streams due then,
// without advancing the cursor.
func (d *Driver) Peek() (time.Time, []ir.StreamRef) {
	if !d.Active() {
		return time.Time{}, nil
	}
	return d.nextDue, d.sched.Deadlines[d.cursor].Due
}

// Advance moves past the current deadline: the cursor wraps modulo the
// deadline list length first, then nextDue grows by the new deadline's
// pause, so Peek always pairs a due-time with the Due set that produced it.
func (d *Driver) Advance() {
	if !d.Active() {
		return
	}
	d.cursor = (d.cursor + 1) % len(d.sched.Deadlines)
	d.nextDue = d.nextDue.Add(d.sched.Deadlines[d.cursor].Pause)
}
