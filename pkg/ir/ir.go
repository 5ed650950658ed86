// Package ir defines the pre-analyzed stream specification consumed by the
// evaluation engine, per spec.md §3/§6.1: ordered input and output streams
// with resolved types and memorization bounds, time-driven rates, sliding
// window descriptors, and triggers. The engine treats a *Module as shared
// read-only state built once at startup.
package ir

import (
	"fmt"
	"time"

	"github.com/lola-rv/monitor/pkg/value"
)

// RefKind distinguishes the two StreamRef variants. They index separate
// vectors (Module.Inputs vs Module.Outputs) and must never be collapsed
// into one integer space: comparing an Input ref against an Output ref by
// raw index alone is a bug the type keeps out of reach.
type RefKind uint8

const (
	RefInput RefKind = iota
	RefOutput
)

// StreamRef is an immutable, copyable tagged reference into the module.
type StreamRef struct {
	Kind  RefKind
	Index int
}

func InputRef(i int) StreamRef  { return StreamRef{Kind: RefInput, Index: i} }
func OutputRef(i int) StreamRef { return StreamRef{Kind: RefOutput, Index: i} }

func (r StreamRef) IsInput() bool  { return r.Kind == RefInput }
func (r StreamRef) IsOutput() bool { return r.Kind == RefOutput }

func (r StreamRef) String() string {
	if r.IsInput() {
		return fmt.Sprintf("in:%d", r.Index)
	}
	return fmt.Sprintf("out:%d", r.Index)
}

// MemorizationBound is either Unbounded (retain every value since start) or
// Bounded(N) with N >= 1, per spec.md §3.
type MemorizationBound struct {
	Unbounded bool
	N         int
}

func Unbounded() MemorizationBound       { return MemorizationBound{Unbounded: true} }
func Bounded(n int) MemorizationBound    { return MemorizationBound{N: n} }
func (b MemorizationBound) IsBounded() bool { return !b.Unbounded }

// Less implements the partial order from spec.md §3: Bounded(a) < Bounded(b)
// iff a < b. Unbounded is not comparable under this order; callers sizing a
// ring buffer must check IsBounded first.
func (b MemorizationBound) Less(other MemorizationBound) bool {
	if b.Unbounded || other.Unbounded {
		return false
	}
	return b.N < other.N
}

// Tracking describes how a dependent stream retains past values of a
// trackee, per spec.md §3: either every value ever produced, or a bounded
// number retained at a sub-sampled rate.
type Tracking struct {
	All      bool
	Trackee  StreamRef
	Num      int
	Rate     time.Duration
}

func TrackAll(trackee StreamRef) Tracking {
	return Tracking{All: true, Trackee: trackee}
}

func TrackBounded(trackee StreamRef, num int, rate time.Duration) Tracking {
	return Tracking{Trackee: trackee, Num: num, Rate: rate}
}

// WindowOp enumerates the sliding-window aggregation kinds of spec.md §3.
type WindowOp uint8

const (
	WinSum WindowOp = iota
	WinProduct
	WinAverage
	WinCount
	WinIntegral
)

func (op WindowOp) String() string {
	switch op {
	case WinSum:
		return "Sum"
	case WinProduct:
		return "Product"
	case WinAverage:
		return "Average"
	case WinCount:
		return "Count"
	case WinIntegral:
		return "Integral"
	default:
		return fmt.Sprintf("WindowOp(%d)", op)
	}
}

// SlidingWindow is a window descriptor: an aggregation over the last
// Duration of values written to Target, per spec.md §3/§4.2.
type SlidingWindow struct {
	ID       int
	Target   StreamRef
	Duration time.Duration
	Op       WindowOp
	ElemType value.Type
}

// WindowRef indexes into Module.Windows, distinct from a StreamRef.
type WindowRef int

// InputStream is an externally-observed stream: name, declared type, the
// trackers that depend on it, and a memorization bound, per spec.md §3.
type InputStream struct {
	Name     string
	Type     value.Type
	Bound    MemorizationBound
	Trackers []Tracking
}

// OutputStream is a derived stream computed from an expression tree, per
// spec.md §3. Layer is the precomputed evaluation-order layer (§4.6);
// Activation lists the inputs whose presence this tick enables an
// event-driven evaluation (nil for a purely time-driven output).
type OutputStream struct {
	Name       string
	Type       value.Type
	Expr       Expr
	InputDeps  []StreamRef
	Offsets    []int
	Trackers   []Tracking
	Bound      MemorizationBound
	Layer      int
	Activation []StreamRef
	Ref        StreamRef
}

// TimeDrivenStream pairs an output with a positive firing rate, per
// spec.md §3. All rates in a module must share a finite GCD and LCM.
type TimeDrivenStream struct {
	Ref  StreamRef
	Rate time.Duration
}

// Trigger is a Boolean output stream whose true value is user-visible.
type Trigger struct {
	Ref StreamRef
}

// Module is the complete, immutable IR of one specification: the shared
// read-only input to the evaluation engine (spec.md §3 "Entity ownership").
type Module struct {
	Inputs     []*InputStream
	Outputs    []*OutputStream
	TimeDriven []TimeDrivenStream
	Windows    []*SlidingWindow
	Triggers   []Trigger
}

func (m *Module) Input(ref StreamRef) *InputStream {
	if !ref.IsInput() || ref.Index < 0 || ref.Index >= len(m.Inputs) {
		return nil
	}
	return m.Inputs[ref.Index]
}

func (m *Module) Output(ref StreamRef) *OutputStream {
	if !ref.IsOutput() || ref.Index < 0 || ref.Index >= len(m.Outputs) {
		return nil
	}
	return m.Outputs[ref.Index]
}

// StreamType resolves the declared type of any stream reference.
func (m *Module) StreamType(ref StreamRef) (value.Type, bool) {
	if ref.IsInput() {
		if in := m.Input(ref); in != nil {
			return in.Type, true
		}
		return value.Type{}, false
	}
	if out := m.Output(ref); out != nil {
		return out.Type, true
	}
	return value.Type{}, false
}

// Window resolves a WindowRef to its descriptor.
func (m *Module) Window(w WindowRef) *SlidingWindow {
	if int(w) < 0 || int(w) >= len(m.Windows) {
		return nil
	}
	return m.Windows[w]
}

// EventDriven reports the outputs that fire on input arrival (those without
// a TimeDrivenStream entry).
func (m *Module) EventDriven() []*OutputStream {
	timeDriven := make(map[StreamRef]bool, len(m.TimeDriven))
	for _, td := range m.TimeDriven {
		timeDriven[td.Ref] = true
	}
	var out []*OutputStream
	for _, o := range m.Outputs {
		if !timeDriven[o.Ref] {
			out = append(out, o)
		}
	}
	return out
}

// Rates returns the distinct positive extend_rates declared across all
// time-driven streams, the input the schedule builder consumes (§4.4).
func (m *Module) Rates() []time.Duration {
	seen := make(map[time.Duration]bool)
	var rates []time.Duration
	for _, td := range m.TimeDriven {
		if !seen[td.Rate] {
			seen[td.Rate] = true
			rates = append(rates, td.Rate)
		}
	}
	return rates
}
