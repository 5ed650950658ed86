package ir

import "github.com/lola-rv/monitor/pkg/value"

// Expr is an expression tree node, per spec.md §4.3. Each concrete type
// below is one of the node kinds the evaluator must handle; the set is
// closed: the IR never introduces a kind outside this list.
type Expr interface {
	exprNode()
}

// LoadConstant carries a literal value.
type LoadConstant struct {
	Value value.Value
}

// ArithLog applies an operator to recursively-evaluated arguments.
// And/Or short-circuit for efficiency even though totality is already
// proven by the frontend (spec.md §4.3).
type ArithLog struct {
	Op   value.Op
	Args []Expr
	Type value.Type
}

// OffsetKind distinguishes a discrete-tick offset from a real-time offset.
type OffsetKind uint8

const (
	OffsetDiscrete OffsetKind = iota
	OffsetRealTime
)

// OffsetLookup reads a past value of Target: Discrete offsets count ticks,
// RealTime offsets consult the sample-and-hold value at (now - Duration).
// Yields the "None" sentinel when unavailable; a surrounding Default node
// must handle that.
type OffsetLookup struct {
	Target   StreamRef
	Kind     OffsetKind
	Discrete int
	Duration int64 // nanoseconds, used when Kind == OffsetRealTime
}

// SampleAndHoldStreamLookup reads the latest-ever value of Target.
type SampleAndHoldStreamLookup struct {
	Target StreamRef
}

// SyncStreamLookup reads the current-tick value of Target; must be
// available by the surrounding output's activation condition.
type SyncStreamLookup struct {
	Target StreamRef
}

// WindowLookup queries a sliding-window accumulator at the current time.
type WindowLookup struct {
	Window WindowRef
}

// Ite evaluates Cond, then only the chosen branch.
type Ite struct {
	Cond, Then, Else Expr
}

// TupleExpr constructs an ordered tuple value from its elements.
type TupleExpr struct {
	Elems []Expr
}

// FunctionCall dispatches to a built-in by name: sqrt, sin, cos, matches,
// per spec.md §4.3.
type FunctionCall struct {
	Name string
	Args []Expr
	Type value.Type
}

// ConvertExpr applies the §4.1 conversion rules to the evaluated Inner.
type ConvertExpr struct {
	From, To value.Type
	Inner    Expr
}

// DefaultExpr substitutes Default when Inner yields the "None" sentinel
// (produced by an unavailable OffsetLookup, a SampleAndHoldStreamLookup of
// a never-written stream, or a SyncStreamLookup of a stream not written
// this tick).
type DefaultExpr struct {
	Inner, Default Expr
}

func (LoadConstant) exprNode()              {}
func (ArithLog) exprNode()                  {}
func (OffsetLookup) exprNode()              {}
func (SampleAndHoldStreamLookup) exprNode() {}
func (SyncStreamLookup) exprNode()          {}
func (WindowLookup) exprNode()              {}
func (Ite) exprNode()                       {}
func (TupleExpr) exprNode()                 {}
func (FunctionCall) exprNode()              {}
func (ConvertExpr) exprNode()               {}
func (DefaultExpr) exprNode()               {}
