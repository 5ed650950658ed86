// Package coordinator implements the main loop of spec.md §4.7: it merges
// the event clock (input arrival) and the periodic deadline clock into one
// linearized timeline, drives the evaluator, owns all storage writes, and
// emits triggers to the sink. It is the engine's single mutator: the
// evaluator only reads through storage and windows, and the coordinator
// writes each value the evaluator returns.
package coordinator

import (
	"fmt"
	"time"

	"github.com/lola-rv/monitor/pkg/eval"
	"github.com/lola-rv/monitor/pkg/ir"
	"github.com/lola-rv/monitor/pkg/planner"
	"github.com/lola-rv/monitor/pkg/rterr"
	"github.com/lola-rv/monitor/pkg/schedule"
	"github.com/lola-rv/monitor/pkg/sink"
	"github.com/lola-rv/monitor/pkg/source"
	"github.com/lola-rv/monitor/pkg/stats"
	"github.com/lola-rv/monitor/pkg/storage"
	"github.com/lola-rv/monitor/pkg/value"
	"github.com/lola-rv/monitor/pkg/window"
)

// ClockMode selects where the event clock's timestamps come from, per
// spec.md §4.7.
type ClockMode uint8

const (
	Offline ClockMode = iota
	Online
)

// InputMode controls how an unparsable input cell is handled, per
// spec.md §7.
type InputMode uint8

const (
	Strict InputMode = iota
	Lenient
)

// Coordinator runs the merged event/deadline loop over one module.
type Coordinator struct {
	mod   *ir.Module
	src   source.Source
	sink  *sink.Sink
	eval  eval.Evaluator
	stats *stats.Stats

	storage *storage.Manager
	windows *window.Manager
	sched   *schedule.Schedule
	driver  *schedule.Driver

	eventPlan [][]ir.StreamRef
	triggers  map[ir.StreamRef]bool

	clockMode ClockMode
	inputMode InputMode

	tick         int64
	lastEventAt  time.Time
	haveLastTime bool

	// pending is a one-record lookahead: the event source has no peek
	// operation (spec.md §6.2's Source is a plain iterator), so the
	// coordinator pulls one record ahead of need to compare its
	// timestamp against the periodic driver's next_due (spec.md §4.7's
	// "process whichever is smaller" rule).
	pending    source.Record
	pendingOK  bool
	sourceDone bool
}

// Config gathers the inputs Coordinator needs beyond the module itself.
type Config struct {
	Module    *ir.Module
	Source    source.Source
	Sink      *sink.Sink
	Evaluator eval.Evaluator
	Stats     *stats.Stats
	ClockMode ClockMode
	InputMode InputMode
}

// New builds a Coordinator, allocating storage and window managers and
// building the schedule and evaluation plan once up front (spec.md §4.6,
// §4.4: both are computed once from the IR, never re-derived at runtime).
func New(cfg Config) *Coordinator {
	sched := schedule.Build(cfg.Module)
	c := &Coordinator{
		mod:       cfg.Module,
		src:       cfg.Source,
		sink:      cfg.Sink,
		eval:      cfg.Evaluator,
		stats:     cfg.Stats,
		storage:   storage.NewManager(cfg.Module),
		windows:   window.NewManager(cfg.Module),
		sched:     sched,
		driver:    schedule.NewDriver(sched, time.Now()),
		eventPlan: planner.EventDrivenLayers(cfg.Module),
		triggers:  make(map[ir.StreamRef]bool, len(cfg.Module.Triggers)),
		clockMode: cfg.ClockMode,
		inputMode: cfg.InputMode,
	}
	for _, t := range cfg.Module.Triggers {
		c.triggers[t.Ref] = true
	}
	return c
}

// Run drives the merged loop to completion: input EOF, after first
// draining any deadlines due at or before the last processed event's
// timestamp (spec.md §12's EOF drain resolution), or a fatal error from
// evaluation or the input source.
func (c *Coordinator) Run() error {
	for {
		rec, haveEvent, err := c.peekEvent()
		if err != nil {
			return err
		}

		haveDeadline := c.driver.Active()
		deadlineDue, dueStreams := c.driver.Peek()

		if !haveEvent {
			if !haveDeadline || !c.withinDrainWindow(deadlineDue) {
				return nil
			}
			c.runDeadline(deadlineDue, dueStreams)
			continue
		}

		eventTime := c.resolveEventTime(rec)
		if c.clockMode == Offline && !c.haveLastTime {
			// The offline clock starts at the first record's timestamp, so
			// the periodic driver is anchored there, not at wall time.
			c.driver = schedule.NewDriver(c.sched, eventTime)
			haveDeadline = c.driver.Active()
			deadlineDue, dueStreams = c.driver.Peek()
		}
		if haveDeadline && !deadlineDue.After(eventTime) {
			c.runDeadline(deadlineDue, dueStreams)
			continue
		}

		c.pendingOK = false // consume the lookahead
		if err := c.runEvent(rec, eventTime); err != nil {
			return err
		}
	}
}

// peekEvent returns the next pending record without consuming it, pulling
// one from the source the first time it is needed and caching it until
// runEvent consumes it.
func (c *Coordinator) peekEvent() (source.Record, bool, error) {
	if c.pendingOK {
		return c.pending, true, nil
	}
	if c.sourceDone {
		return source.Record{}, false, nil
	}
	rec, ok, err := c.src.Next()
	if err != nil {
		return source.Record{}, false, fmt.Errorf("reading input: %w", err)
	}
	if !ok {
		c.sourceDone = true
		return source.Record{}, false, nil
	}
	c.pending = rec
	c.pendingOK = true
	return rec, true, nil
}

// withinDrainWindow implements the EOF drain policy: once the input is
// exhausted, only deadlines at or before the last event's timestamp are
// still processed (spec.md §12).
func (c *Coordinator) withinDrainWindow(due time.Time) bool {
	if !c.haveLastTime {
		return false
	}
	return !due.After(c.lastEventAt)
}

func (c *Coordinator) resolveEventTime(rec source.Record) time.Time {
	if c.clockMode == Online || !rec.HasTime {
		return time.Now()
	}
	return rec.Time
}

// runEvent writes rec's present input cells and evaluates every
// event-driven layer whose activation condition is satisfied (spec.md
// §4.7 "On an event").
func (c *Coordinator) runEvent(rec source.Record, eventTime time.Time) error {
	if c.clockMode == Offline && c.haveLastTime && eventTime.Before(c.lastEventAt) {
		return &rterr.ClockMonotonicityViolation{
			PreviousNanos: c.lastEventAt.UnixNano(),
			NextNanos:     eventTime.UnixNano(),
		}
	}

	c.tick++
	present := make(map[ir.StreamRef]bool, len(c.mod.Inputs))
	for i, in := range c.mod.Inputs {
		ref := ir.InputRef(i)
		text, ok := rec.Cells[in.Name]
		if !ok || text == "" {
			continue
		}
		v, ok := value.Parse(text, in.Type)
		if !ok {
			if c.inputMode == Strict {
				return &rterr.InputParseError{Stream: in.Name, Text: text, Tick: uint64(c.tick)}
			}
			c.sink.Emitf(sink.WarningsOnly, "tick %d: dropping unparsable value %q for input %q", c.tick, text, in.Name)
			continue
		}
		c.storage.Cell(ref).Write(c.tick, eventTime, v)
		c.windows.Observe(ref, eventTime, v)
		present[ref] = true
	}

	if err := c.evaluateLayers(c.eventPlan, eventTime, present); err != nil {
		return err
	}

	c.lastEventAt = eventTime
	c.haveLastTime = true
	if c.stats != nil {
		c.stats.NewEvent()
	}
	return nil
}

// evaluateLayers evaluates each event-driven output in plan whose
// activation condition is satisfied by present, layer by layer.
func (c *Coordinator) evaluateLayers(plan [][]ir.StreamRef, at time.Time, present map[ir.StreamRef]bool) error {
	ctx := &eval.Context{Tick: c.tick, Now: at, Storage: c.storage, Windows: c.windows}
	for _, layer := range plan {
		for _, ref := range layer {
			out := c.mod.Output(ref)
			if out == nil || !c.activated(out, present) {
				continue
			}
			v, err := c.eval.Eval(ref, ctx)
			if err != nil {
				return err
			}
			c.storage.Cell(ref).Write(c.tick, at, v)
			c.windows.Observe(ref, at, v)
			if c.triggers[ref] {
				c.maybeFireTrigger(ref, v)
			}
		}
	}
	return nil
}

// activated reports whether every input out.Activation names has a value
// present this tick (spec.md §4.7 step 3, §4.2's activation semantics). A
// nil Activation (purely time-driven output) never activates on an event.
func (c *Coordinator) activated(out *ir.OutputStream, present map[ir.StreamRef]bool) bool {
	if len(out.Activation) == 0 {
		return false
	}
	for _, req := range out.Activation {
		if !present[req] {
			return false
		}
	}
	return true
}

func (c *Coordinator) maybeFireTrigger(ref ir.StreamRef, v value.Value) {
	b, ok := v.AsBool()
	if !ok || !b {
		return
	}
	out := c.mod.Output(ref)
	name := ref.String()
	if out != nil {
		name = out.Name
	}
	if c.stats != nil {
		c.stats.Trigger()
	}
	c.sink.Emitf(sink.Triggers, "trigger %s fired at tick %d", name, c.tick)
}

// runDeadline evaluates every time-driven stream due at due, per spec.md
// §4.7 "On a deadline": each due stream's expression is evaluated using
// the deadline's absolute time, time-driven triggers are checked, and the
// driver advances.
func (c *Coordinator) runDeadline(due time.Time, streams []ir.StreamRef) {
	ctx := &eval.Context{Tick: c.tick, Now: due, Storage: c.storage, Windows: c.windows}
	plan := planner.Plan(c.mod, streams)
	for _, layer := range plan {
		for _, ref := range layer {
			v, err := c.eval.Eval(ref, ctx)
			if err != nil {
				c.sink.Emitf(sink.WarningsOnly, "deadline at %s: %v", due, err)
				continue
			}
			c.storage.Cell(ref).Write(c.tick, due, v)
			c.windows.Observe(ref, due, v)
			if c.triggers[ref] {
				c.maybeFireTrigger(ref, v)
			}
		}
	}
	c.driver.Advance()
}
